package resolution

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nacsos-data/nacsos-core/internal/model"
)

func TestNewEmptyMatrixHasOneCellPerItemPerLabel(t *testing.T) {
	item := uuid.New()
	flat := []model.FlatLabel{{Path: "relevant", Label: model.Label{Key: "relevant"}}}
	m := NewEmptyMatrix([]uuid.UUID{item}, flat)
	require.Contains(t, m, item)
	require.Contains(t, m[item], model.LabelPathKey("relevant"))
	require.NotNil(t, m[item]["relevant"].Resolution)
}

func TestPopulateAttachesUserEntriesAndSkipsUnknownPaths(t *testing.T) {
	item := uuid.New()
	user := uuid.New()
	flat := []model.FlatLabel{{Path: "relevant", Label: model.Label{Key: "relevant"}}}
	m := NewEmptyMatrix([]uuid.UUID{item}, flat)

	annID := uuid.New()
	badID := uuid.New()
	annotations := map[uuid.UUID][]model.Annotation{
		item: {
			{AnnotationID: annID, ItemID: item, UserID: user, Key: "relevant"},
			{AnnotationID: badID, ItemID: item, UserID: user, Key: "unknown"},
		},
	}
	paths := map[uuid.UUID]model.LabelPathKey{
		annID: "relevant",
		badID: "does-not-exist",
	}

	cells, skipped := Populate(m, annotations, paths)
	require.Equal(t, 1, skipped)
	require.Len(t, cells[item]["relevant"].Labels[user], 1)
}

func TestMergeSnapshotMarksUnchangedWhenValueMatches(t *testing.T) {
	item := uuid.New()
	user := uuid.New()
	cells := map[uuid.UUID]map[model.LabelPathKey]*Cell{
		item: {
			"relevant": {
				Labels: map[uuid.UUID][]model.UserEntry{
					user: {{UserID: user, Value: model.AnnotationValue{ValueBool: boolPtr(true)}, Status: model.EntryNew}},
				},
			},
		},
	}
	snapshot := &model.ResolutionSnapshot{
		Values: map[uuid.UUID]map[model.LabelPathKey]model.SnapshotCell{
			item: {"relevant": model.SnapshotCell{Entries: map[uuid.UUID]model.AnnotationValue{user: {ValueBool: boolPtr(true)}}}},
		},
	}

	merged := MergeSnapshot(cells, snapshot, true)
	require.Equal(t, model.EntryUnchanged, merged[item]["relevant"].Labels[user][0].Status)
}

func TestMergeSnapshotMarksChangedWhenValueDiffers(t *testing.T) {
	item := uuid.New()
	user := uuid.New()
	cells := map[uuid.UUID]map[model.LabelPathKey]*Cell{
		item: {
			"relevant": {
				Labels: map[uuid.UUID][]model.UserEntry{
					user: {{UserID: user, Value: model.AnnotationValue{ValueBool: boolPtr(false)}, Status: model.EntryNew}},
				},
			},
		},
	}
	snapshot := &model.ResolutionSnapshot{
		Values: map[uuid.UUID]map[model.LabelPathKey]model.SnapshotCell{
			item: {"relevant": model.SnapshotCell{Entries: map[uuid.UUID]model.AnnotationValue{user: {ValueBool: boolPtr(true)}}}},
		},
	}

	merged := MergeSnapshot(cells, snapshot, true)
	require.Equal(t, model.EntryChanged, merged[item]["relevant"].Labels[user][0].Status)
}

// TestMergeSnapshotAttachesPriorResolutionRegardlessOfPerUserDiff covers
// spec.md:192 step 6's first bullet directly: the prior BotAnnotation
// (id and value) must be attached to the cell's resolution as soon as a
// snapshot counterpart exists, independent of the per-user CHANGED/
// UNCHANGED bookkeeping that follows it.
func TestMergeSnapshotAttachesPriorResolutionRegardlessOfPerUserDiff(t *testing.T) {
	item := uuid.New()
	user := uuid.New()
	priorBotAnnotationID := uuid.New()
	priorValue := model.AnnotationValue{ValueBool: boolPtr(true)}
	cells := map[uuid.UUID]map[model.LabelPathKey]*Cell{
		item: {
			"relevant": {
				Labels: map[uuid.UUID][]model.UserEntry{
					user: {{UserID: user, Value: model.AnnotationValue{ValueBool: boolPtr(false)}, Status: model.EntryNew}},
				},
				Resolution: &model.BotAnnotation{BotAnnotationID: uuid.New()},
			},
		},
	}
	snapshot := &model.ResolutionSnapshot{
		Values: map[uuid.UUID]map[model.LabelPathKey]model.SnapshotCell{
			item: {
				"relevant": model.SnapshotCell{
					Entries:         map[uuid.UUID]model.AnnotationValue{user: {ValueBool: boolPtr(true)}},
					BotAnnotationID: priorBotAnnotationID,
					Value:           priorValue,
				},
			},
		},
	}

	merged := MergeSnapshot(cells, snapshot, true)
	res := merged[item]["relevant"].Resolution
	require.NotNil(t, res)
	require.Equal(t, priorBotAnnotationID, res.BotAnnotationID)
	require.True(t, res.AnnotationValue.Equal(priorValue))
}

func TestMergeSnapshotDropsNewItemsWhenIncludeNewFalse(t *testing.T) {
	item := uuid.New()
	cells := map[uuid.UUID]map[model.LabelPathKey]*Cell{
		item: {"relevant": {Labels: map[uuid.UUID][]model.UserEntry{}}},
	}
	snapshot := &model.ResolutionSnapshot{Values: map[uuid.UUID]map[model.LabelPathKey]model.SnapshotCell{}}

	merged := MergeSnapshot(cells, snapshot, false)
	require.NotContains(t, merged, item)
}

func TestPruneDropsItemsWithNoAnnotations(t *testing.T) {
	withAnnotations := uuid.New()
	empty := uuid.New()
	user := uuid.New()
	cells := map[uuid.UUID]map[model.LabelPathKey]*Cell{
		withAnnotations: {"relevant": {Labels: map[uuid.UUID][]model.UserEntry{user: {{UserID: user}}}}},
		empty:           {"relevant": {Labels: map[uuid.UUID][]model.UserEntry{}}},
	}
	pruned := Prune(cells)
	require.Contains(t, pruned, withAnnotations)
	require.NotContains(t, pruned, empty)
}

func boolPtr(b bool) *bool { return &b }
