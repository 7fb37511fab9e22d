package resolution

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nacsos-data/nacsos-core/internal/model"
)

type recordingAnnotationStore struct {
	fakeAnnotationStore
	createdMeta *model.BotAnnotationMetadata
	inserted    []model.BotAnnotation
}

func (r *recordingAnnotationStore) CreateBotAnnotationMetadata(ctx context.Context, meta *model.BotAnnotationMetadata) error {
	r.createdMeta = meta
	return nil
}

func (r *recordingAnnotationStore) InsertBotAnnotations(ctx context.Context, items []model.BotAnnotation) error {
	r.inserted = items
	return nil
}

func TestCommitInsertsParentsBeforeChildren(t *testing.T) {
	schemeID := uuid.New()
	scopeID := uuid.New()
	itemID := uuid.New()
	user := uuid.New()
	assignID := uuid.New()

	scheme := sampleScheme()
	scheme.AnnotationSchemeID = schemeID

	one := 1
	relevantAnnID := uuid.New()
	store := &recordingAnnotationStore{fakeAnnotationStore: fakeAnnotationStore{
		scheme: scheme,
		assignments: map[uuid.UUID][]model.Assignment{
			scopeID: {{AssignmentID: assignID, AssignmentScopeID: scopeID, ItemID: itemID, UserID: user, Order: 0}},
		},
		annotations: map[uuid.UUID][]model.Annotation{
			assignID: {
				{AnnotationID: relevantAnnID, AssignmentID: assignID, ItemID: itemID, UserID: user, Key: "relevant", AnnotationValue: model.AnnotationValue{ValueInt: &one}},
				{AnnotationID: uuid.New(), AssignmentID: assignID, ItemID: itemID, UserID: user, Key: "topic", Parent: &relevantAnnID, AnnotationValue: model.AnnotationValue{ValueInt: &one}},
			},
		},
	}}

	proposal, err := Resolve(context.Background(), store, Options{
		Strategy:     StrategyMajority,
		Filter:       Filter{SchemeID: schemeID, ScopeIDs: []uuid.UUID{scopeID}},
		IncludeEmpty: true,
		IncludeNew:   true,
	}, nil, nil)
	require.NoError(t, err)

	meta, err := Commit(context.Background(), store, proposal, CommitOptions{
		ProjectID: uuid.New(),
		Name:      "test-run",
		Strategy:  StrategyMajority,
	})
	require.NoError(t, err)
	require.Equal(t, model.BotResolve, meta.Kind)
	require.NotNil(t, store.createdMeta)
	require.Equal(t, meta.BotAnnotationMetadataID, store.createdMeta.BotAnnotationMetadataID)

	require.Len(t, store.inserted, 2)
	indexOf := func(key string) int {
		for i, ba := range store.inserted {
			if ba.Key == key {
				return i
			}
		}
		return -1
	}
	require.Less(t, indexOf("relevant"), indexOf("topic"))
	for _, ba := range store.inserted {
		require.Equal(t, meta.BotAnnotationMetadataID, ba.BotAnnotationMetadataID)
	}
}

func TestCommitUpdatePathReusesExistingMetadataID(t *testing.T) {
	schemeID := uuid.New()
	scopeID := uuid.New()
	itemID := uuid.New()
	user := uuid.New()
	assignID := uuid.New()
	existing := uuid.New()

	store := &recordingAnnotationStore{fakeAnnotationStore: fakeAnnotationStore{
		scheme: &model.AnnotationScheme{AnnotationSchemeID: schemeID, Labels: []model.Label{{Key: "relevant", Kind: model.LabelBool}}},
		assignments: map[uuid.UUID][]model.Assignment{
			scopeID: {{AssignmentID: assignID, AssignmentScopeID: scopeID, ItemID: itemID, UserID: user, Order: 0}},
		},
		annotations: map[uuid.UUID][]model.Annotation{
			assignID: {boolAnnotation(assignID, itemID, user, "relevant", true)},
		},
	}}

	proposal, err := Resolve(context.Background(), store, Options{
		Strategy:     StrategyMajority,
		Filter:       Filter{SchemeID: schemeID, ScopeIDs: []uuid.UUID{scopeID}},
		IncludeEmpty: true,
	}, nil, nil)
	require.NoError(t, err)

	meta, err := Commit(context.Background(), store, proposal, CommitOptions{
		ProjectID:          uuid.New(),
		Name:               "resolve-again",
		Strategy:           StrategyMajority,
		ExistingMetadataID: &existing,
	})
	require.NoError(t, err)
	require.Equal(t, existing, meta.BotAnnotationMetadataID)
	require.Nil(t, store.createdMeta)
	require.Len(t, store.inserted, 1)
	require.Equal(t, existing, store.inserted[0].BotAnnotationMetadataID)
}
