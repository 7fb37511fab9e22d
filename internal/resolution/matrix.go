package resolution

import (
	"github.com/google/uuid"

	"github.com/nacsos-data/nacsos-core/internal/idgen"
	"github.com/nacsos-data/nacsos-core/internal/model"
)

// NewEmptyMatrix instantiates a Cell with an empty user map and a
// placeholder NEW-status resolution for every (item, label_path) pair
// (spec §4.4 step 4).
func NewEmptyMatrix(itemIDs []uuid.UUID, flat []model.FlatLabel) model.ResolutionMatrix {
	matrix := make(model.ResolutionMatrix, len(itemIDs))
	for _, itemID := range itemIDs {
		cells := make(map[model.LabelPathKey]*model.Cell, len(flat))
		for _, fl := range flat {
			cells[fl.Path] = &model.Cell{
				Labels: make(map[uuid.UUID][]model.UserEntry),
				Resolution: &model.BotAnnotation{
					BotAnnotationID: idgen.New(),
					ItemID:          itemID,
					Key:             fl.Label.Key,
					Repeat:          0,
				},
			}
		}
		matrix[itemID] = cells
	}
	return matrix
}

// Cell mirrors model.Cell but additionally tracks the cell's own overall
// status, since model.Cell's UserEntry-level statuses don't by
// themselves say whether the cell as a whole is new (resolution package
// internal detail, collapsed away before the Proposal's matrix is handed
// back to the caller as model.ResolutionMatrix at the end of Resolve).
type Cell struct {
	Labels     map[uuid.UUID][]model.UserEntry
	Resolution *model.BotAnnotation
	Status     model.EntryStatus
}

// Populate attaches each user Annotation to its cell as a NEW UserEntry
// (spec §4.4 step 5); annotations whose computed path isn't in the
// matrix (an inconsistent label path, spec §4.4 Failure semantics) are
// skipped and reported via the returned skipped count, not an abort.
func Populate(matrix model.ResolutionMatrix, annotationsByItem map[uuid.UUID][]model.Annotation, pathByAnnotation map[uuid.UUID]model.LabelPathKey) (cells map[uuid.UUID]map[model.LabelPathKey]*Cell, skipped int) {
	cells = make(map[uuid.UUID]map[model.LabelPathKey]*Cell, len(matrix))
	for itemID, byPath := range matrix {
		cellMap := make(map[model.LabelPathKey]*Cell, len(byPath))
		for path, c := range byPath {
			cellMap[path] = &Cell{Labels: make(map[uuid.UUID][]model.UserEntry), Resolution: c.Resolution, Status: model.EntryNew}
		}
		cells[itemID] = cellMap
	}

	for itemID, annotations := range annotationsByItem {
		cellMap, ok := cells[itemID]
		if !ok {
			continue
		}
		for _, a := range annotations {
			path, ok := pathByAnnotation[a.AnnotationID]
			if !ok {
				skipped++
				continue
			}
			c, ok := cellMap[path]
			if !ok {
				skipped++
				continue
			}
			c.Labels[a.UserID] = append(c.Labels[a.UserID], model.UserEntry{
				UserID: a.UserID,
				Value:  a.AnnotationValue,
				Status: model.EntryNew,
			})
		}
	}
	return cells, skipped
}

// MergeSnapshot applies a prior ResolutionSnapshot's fingerprints (spec
// §4.4 step 6). Per step 6's first bullet, every cell with a
// counterpart in the snapshot has its prior BotAnnotation (id and
// resolved value) re-attached as c.Resolution before any per-user
// diffing, so a cell that never gets re-resolved this run (prior !=
// nil, update_existing == false) still carries forward the value it was
// last committed with rather than an empty placeholder.
//
// Deliberate deviation (see model.EntryStatus doc comment): a user
// entry's status is UNCHANGED when its current value equals the
// snapshot's recorded value for that (item, path, user), CHANGED
// otherwise. Entries with no counterpart in the snapshot keep NEW.
func MergeSnapshot(cells map[uuid.UUID]map[model.LabelPathKey]*Cell, snapshot *model.ResolutionSnapshot, includeNew bool) map[uuid.UUID]map[model.LabelPathKey]*Cell {
	if snapshot == nil {
		return cells
	}

	for itemID, byPath := range cells {
		snapshotPaths, hasItem := snapshot.Values[itemID]
		if !hasItem {
			if !includeNew {
				delete(cells, itemID)
			}
			continue
		}
		for path, c := range byPath {
			prior, hasPath := snapshotPaths[path]
			if !hasPath {
				continue
			}
			c.Status = model.EntryUnchanged
			if c.Resolution != nil {
				c.Resolution.BotAnnotationID = prior.BotAnnotationID
				c.Resolution.AnnotationValue = prior.Value
			}
			for user, entries := range c.Labels {
				priorValue, hasUser := prior.Entries[user]
				for i, e := range entries {
					if !hasUser {
						continue // no fingerprint for this user at this cell: stays NEW
					}
					if e.Value.Equal(priorValue) {
						entries[i].Status = model.EntryUnchanged
					} else {
						entries[i].Status = model.EntryChanged
					}
				}
				c.Labels[user] = entries
			}
		}
	}
	return cells
}

// Prune removes items with no annotations at all (spec §4.4 step 9,
// active when include_empty = false).
func Prune(cells map[uuid.UUID]map[model.LabelPathKey]*Cell) map[uuid.UUID]map[model.LabelPathKey]*Cell {
	for itemID, byPath := range cells {
		empty := true
		for _, c := range byPath {
			if len(c.Labels) > 0 {
				empty = false
				break
			}
		}
		if empty {
			delete(cells, itemID)
		}
	}
	return cells
}
