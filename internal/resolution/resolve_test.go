package resolution

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nacsos-data/nacsos-core/internal/apperr"
	"github.com/nacsos-data/nacsos-core/internal/model"
)

type fakeAnnotationStore struct {
	scheme      *model.AnnotationScheme
	scopes      []model.AssignmentScope
	assignments map[uuid.UUID][]model.Assignment
	annotations map[uuid.UUID][]model.Annotation
}

func (f *fakeAnnotationStore) GetScheme(ctx context.Context, schemeID uuid.UUID) (*model.AnnotationScheme, error) {
	if f.scheme == nil {
		return nil, apperr.New("fakeAnnotationStore.GetScheme", apperr.KindNotFound, nil)
	}
	return f.scheme, nil
}

func (f *fakeAnnotationStore) ListAssignmentScopes(ctx context.Context, schemeID uuid.UUID) ([]model.AssignmentScope, error) {
	return f.scopes, nil
}

func (f *fakeAnnotationStore) ListAssignments(ctx context.Context, scopeID uuid.UUID) ([]model.Assignment, error) {
	return f.assignments[scopeID], nil
}

func (f *fakeAnnotationStore) ListAnnotations(ctx context.Context, assignmentID uuid.UUID) ([]model.Annotation, error) {
	return f.annotations[assignmentID], nil
}

func (f *fakeAnnotationStore) CreateBotAnnotationMetadata(ctx context.Context, meta *model.BotAnnotationMetadata) error {
	return nil
}

func (f *fakeAnnotationStore) InsertBotAnnotations(ctx context.Context, items []model.BotAnnotation) error {
	return nil
}

func (f *fakeAnnotationStore) LoadPriorSnapshot(ctx context.Context, metadataID uuid.UUID) (*model.ResolutionSnapshot, error) {
	return nil, nil
}

func boolAnnotation(assignmentID, itemID, userID uuid.UUID, key string, v bool) model.Annotation {
	return model.Annotation{
		AnnotationID:    uuid.New(),
		AssignmentID:    assignmentID,
		ItemID:          itemID,
		UserID:          userID,
		Key:             key,
		AnnotationValue: model.AnnotationValue{ValueBool: &v},
	}
}

func TestResolveAppliesMajorityAcrossTwoAnnotators(t *testing.T) {
	schemeID := uuid.New()
	scopeID := uuid.New()
	itemID := uuid.New()
	userA, userB := uuid.New(), uuid.New()
	assignA := uuid.New()
	assignB := uuid.New()

	store := &fakeAnnotationStore{
		scheme: &model.AnnotationScheme{
			AnnotationSchemeID: schemeID,
			Labels:             []model.Label{{Key: "relevant", Kind: model.LabelBool}},
		},
		assignments: map[uuid.UUID][]model.Assignment{
			scopeID: {
				{AssignmentID: assignA, AssignmentScopeID: scopeID, ItemID: itemID, UserID: userA, Order: 0},
				{AssignmentID: assignB, AssignmentScopeID: scopeID, ItemID: itemID, UserID: userB, Order: 1},
			},
		},
		annotations: map[uuid.UUID][]model.Annotation{
			assignA: {boolAnnotation(assignA, itemID, userA, "relevant", true)},
			assignB: {boolAnnotation(assignB, itemID, userB, "relevant", true)},
		},
	}

	proposal, err := Resolve(context.Background(), store, Options{
		Strategy:     StrategyMajority,
		Filter:       Filter{SchemeID: schemeID, ScopeIDs: []uuid.UUID{scopeID}},
		IncludeEmpty: true,
		IncludeNew:   true,
	}, nil, nil)
	require.NoError(t, err)
	require.Len(t, proposal.Annotators, 2)
	cell := proposal.Matrix[itemID]["relevant"]
	require.NotNil(t, cell.Resolution)
	require.NotNil(t, cell.Resolution.ValueBool)
	require.True(t, *cell.Resolution.ValueBool)
}

// TestResolveWithPriorSnapshotAndUpdateExistingFalsePreservesValue is the
// round-trip law spec.md:276 states: resolving against a prior snapshot
// equal to the current state with update_existing=false must reproduce
// the prior snapshot exactly — no cell is left with an empty
// placeholder resolution, and no entry is marked CHANGED.
func TestResolveWithPriorSnapshotAndUpdateExistingFalsePreservesValue(t *testing.T) {
	schemeID := uuid.New()
	scopeID := uuid.New()
	itemID := uuid.New()
	userA := uuid.New()
	assignA := uuid.New()

	store := &fakeAnnotationStore{
		scheme: &model.AnnotationScheme{
			AnnotationSchemeID: schemeID,
			Labels:             []model.Label{{Key: "relevant", Kind: model.LabelBool}},
		},
		assignments: map[uuid.UUID][]model.Assignment{
			scopeID: {
				{AssignmentID: assignA, AssignmentScopeID: scopeID, ItemID: itemID, UserID: userA, Order: 0},
			},
		},
		annotations: map[uuid.UUID][]model.Annotation{
			assignA: {boolAnnotation(assignA, itemID, userA, "relevant", true)},
		},
	}

	priorBotAnnotationID := uuid.New()
	v := true
	prior := &model.ResolutionSnapshot{
		Values: map[uuid.UUID]map[model.LabelPathKey]model.SnapshotCell{
			itemID: {
				"relevant": {
					Entries:         map[uuid.UUID]model.AnnotationValue{userA: {ValueBool: &v}},
					BotAnnotationID: priorBotAnnotationID,
					Value:           model.AnnotationValue{ValueBool: &v},
				},
			},
		},
	}

	proposal, err := Resolve(context.Background(), store, Options{
		Strategy:       StrategyMajority,
		Filter:         Filter{SchemeID: schemeID, ScopeIDs: []uuid.UUID{scopeID}},
		IncludeEmpty:   true,
		IncludeNew:     true,
		UpdateExisting: false,
	}, prior, nil)
	require.NoError(t, err)

	cell := proposal.Matrix[itemID]["relevant"]
	require.NotNil(t, cell.Resolution)
	require.Equal(t, priorBotAnnotationID, cell.Resolution.BotAnnotationID)
	require.NotNil(t, cell.Resolution.ValueBool)
	require.True(t, *cell.Resolution.ValueBool)
	require.Equal(t, model.EntryUnchanged, cell.Labels[userA][0].Status)
}

func TestResolveEmptyFilterRaisesInvalidFilter(t *testing.T) {
	store := &fakeAnnotationStore{}
	_, err := Resolve(context.Background(), store, Options{Strategy: StrategyMajority}, nil, nil)
	require.True(t, apperr.Is(err, apperr.KindInvalidFilter))
}

func TestResolveMissingSchemeRaisesNotFound(t *testing.T) {
	store := &fakeAnnotationStore{}
	_, err := Resolve(context.Background(), store, Options{
		Strategy: StrategyMajority,
		Filter:   Filter{SchemeID: uuid.New()},
	}, nil, nil)
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestResolvePrunesEmptyItemsWhenIncludeEmptyFalse(t *testing.T) {
	schemeID := uuid.New()
	scopeID := uuid.New()
	itemWithAnnotations := uuid.New()
	itemWithout := uuid.New()
	user := uuid.New()
	assignWith := uuid.New()
	assignWithout := uuid.New()

	store := &fakeAnnotationStore{
		scheme: &model.AnnotationScheme{
			AnnotationSchemeID: schemeID,
			Labels:             []model.Label{{Key: "relevant", Kind: model.LabelBool}},
		},
		assignments: map[uuid.UUID][]model.Assignment{
			scopeID: {
				{AssignmentID: assignWith, AssignmentScopeID: scopeID, ItemID: itemWithAnnotations, UserID: user, Order: 0},
				{AssignmentID: assignWithout, AssignmentScopeID: scopeID, ItemID: itemWithout, UserID: user, Order: 1},
			},
		},
		annotations: map[uuid.UUID][]model.Annotation{
			assignWith:    {boolAnnotation(assignWith, itemWithAnnotations, user, "relevant", true)},
			assignWithout: {},
		},
	}

	proposal, err := Resolve(context.Background(), store, Options{
		Strategy:     StrategyMajority,
		Filter:       Filter{SchemeID: schemeID, ScopeIDs: []uuid.UUID{scopeID}},
		IncludeEmpty: false,
		IncludeNew:   true,
	}, nil, nil)
	require.NoError(t, err)
	require.Contains(t, proposal.Matrix, itemWithAnnotations)
	require.NotContains(t, proposal.Matrix, itemWithout)
}
