// Package resolution implements the C4 annotation resolution engine:
// building an item×label matrix of user annotations, reconciling it
// against a prior snapshot, and applying a resolution strategy to
// produce bot annotations ready to persist (spec §4.4).
package resolution

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/nacsos-data/nacsos-core/internal/apperr"
	"github.com/nacsos-data/nacsos-core/internal/model"
	"github.com/nacsos-data/nacsos-core/internal/storagesql"
	"github.com/nacsos-data/nacsos-core/internal/telemetry"
)

// Filter selects which assignments/annotations feed a resolution run.
// At least one of SchemeID or ScopeIDs must be set (spec §4.4 failure
// semantics: "Empty filter -> InvalidFilterError").
type Filter struct {
	SchemeID uuid.UUID
	ScopeIDs []uuid.UUID
	UserIDs  []uuid.UUID
	Keys     []string
	Repeats  []int
}

func (f Filter) empty() bool {
	return f.SchemeID == uuid.Nil && len(f.ScopeIDs) == 0
}

// Options configures one resolution run (spec §4.4 contract).
type Options struct {
	Strategy        Strategy
	Filter          Filter
	IgnoreHierarchy bool
	IgnoreRepeat    bool
	IncludeEmpty    bool
	IncludeNew      bool
	UpdateExisting  bool
}

// Proposal is what Resolve hands back for the UI to display and, if
// accepted, commit.
type Proposal struct {
	SchemeInfo *model.AnnotationScheme
	Labels     []model.FlatLabel
	Annotators []uuid.UUID
	Ordering   []model.OrderingEntry
	Matrix     model.ResolutionMatrix

	// Items fixes a stable position for every item this run touched, in
	// first-seen traversal order. Commit uses an item's index here as the
	// order_key of its fingerprints in the persisted snapshot (spec §4.4
	// "Persistence (commit path)") rather than the item id itself, so the
	// snapshot stays compact.
	Items []uuid.UUID
}

// Resolve runs the full algorithm of spec §4.4: scheme flattening,
// ordering, annotation fetch, empty-matrix construction, population,
// prior-snapshot merge, strategy application, parent re-linking, and
// optional pruning.
func Resolve(ctx context.Context, store storagesql.AnnotationStore, opts Options, prior *model.ResolutionSnapshot, log *slog.Logger) (*Proposal, error) {
	if log == nil {
		log = slog.Default()
	}
	if opts.Filter.empty() {
		return nil, apperr.New("resolution.Resolve", apperr.KindInvalidFilter, nil)
	}

	scheme, err := store.GetScheme(ctx, opts.Filter.SchemeID)
	if err != nil {
		return nil, apperr.Wrap("resolution.GetScheme", err)
	}

	flat := Flatten(scheme, opts.IgnoreHierarchy, opts.IgnoreRepeat)

	scopeIDs := opts.Filter.ScopeIDs
	if len(scopeIDs) == 0 {
		scopes, err := store.ListAssignmentScopes(ctx, scheme.AnnotationSchemeID)
		if err != nil {
			return nil, apperr.Wrap("resolution.ListAssignmentScopes", err)
		}
		for _, s := range scopes {
			scopeIDs = append(scopeIDs, s.AssignmentScopeID)
		}
	}

	var ordering []model.OrderingEntry
	itemSeen := make(map[uuid.UUID]bool)
	var itemIDs []uuid.UUID
	annotationsByItem := make(map[uuid.UUID][]model.Annotation)
	pathByAnnotation := make(map[uuid.UUID]model.LabelPathKey)
	annotators := make(map[uuid.UUID]bool)

	for _, scopeID := range scopeIDs {
		var assignments []model.Assignment
		err := telemetry.Suspend(ctx, "resolution", "list_assignments", func(ctx context.Context) error {
			a, err := store.ListAssignments(ctx, scopeID)
			assignments = a
			return err
		})
		if err != nil {
			return nil, apperr.Wrap("resolution.ListAssignments", err)
		}
		sort.Slice(assignments, func(i, j int) bool { return assignments[i].Order < assignments[j].Order })

		for _, a := range assignments {
			ordering = append(ordering, model.OrderingEntry{AssignmentScopeID: scopeID, Order: a.Order})
			if !itemSeen[a.ItemID] {
				itemSeen[a.ItemID] = true
				itemIDs = append(itemIDs, a.ItemID)
			}

			var annotations []model.Annotation
			err := telemetry.Suspend(ctx, "resolution", "list_annotations", func(ctx context.Context) error {
				an, err := store.ListAnnotations(ctx, a.AssignmentID)
				annotations = an
				return err
			})
			if err != nil {
				return nil, apperr.Wrap("resolution.ListAnnotations", err)
			}

			byID := make(map[uuid.UUID]model.Annotation, len(annotations))
			for _, an := range annotations {
				byID[an.AnnotationID] = an
			}
			for _, an := range annotations {
				if !matchesFilter(opts.Filter, an) {
					continue
				}
				annotationsByItem[an.ItemID] = append(annotationsByItem[an.ItemID], an)
				annotators[an.UserID] = true
				pathByAnnotation[an.AnnotationID] = AnnotationPath(an.Key, ancestorsOf(an, byID), opts.IgnoreHierarchy)
			}
		}
	}

	matrix := NewEmptyMatrix(itemIDs, flat)
	cells, skipped := Populate(matrix, annotationsByItem, pathByAnnotation)
	if skipped > 0 {
		log.Warn("resolution: skipped annotations with inconsistent label paths", "count", skipped)
	}

	if prior != nil {
		cells = MergeSnapshot(cells, prior, opts.IncludeNew)
	}

	if prior == nil || opts.UpdateExisting {
		flatByPath := make(map[model.LabelPathKey]model.FlatLabel, len(flat))
		for _, fl := range flat {
			flatByPath[fl.Path] = fl
		}
		for _, byPath := range cells {
			for path, c := range byPath {
				fl, ok := flatByPath[path]
				if !ok {
					continue
				}
				entries := flattenUserEntries(c.Labels)
				value, err := Apply(opts.Strategy, fl.Label.Kind, entries)
				if err != nil {
					if apperr.Is(err, apperr.KindEmptyAnnotations) {
						continue // leave NEW placeholder, spec §4.4 failure semantics
					}
					return nil, err
				}
				c.Resolution.AnnotationValue = value
			}
		}
	}

	relinkParents(cells)

	if !opts.IncludeEmpty {
		cells = Prune(cells)
	}

	outMatrix := make(model.ResolutionMatrix, len(cells))
	for itemID, byPath := range cells {
		outCells := make(map[model.LabelPathKey]*model.Cell, len(byPath))
		for path, c := range byPath {
			outCells[path] = &model.Cell{Labels: c.Labels, Resolution: c.Resolution}
		}
		outMatrix[itemID] = outCells
	}

	annotatorIDs := make([]uuid.UUID, 0, len(annotators))
	for u := range annotators {
		annotatorIDs = append(annotatorIDs, u)
	}
	sort.Slice(annotatorIDs, func(i, j int) bool { return annotatorIDs[i].String() < annotatorIDs[j].String() })

	return &Proposal{
		SchemeInfo: scheme,
		Labels:     flat,
		Annotators: annotatorIDs,
		Ordering:   ordering,
		Matrix:     outMatrix,
		Items:      itemIDs,
	}, nil
}

func matchesFilter(f Filter, a model.Annotation) bool {
	if len(f.UserIDs) > 0 && !containsUUID(f.UserIDs, a.UserID) {
		return false
	}
	if len(f.Keys) > 0 && !containsString(f.Keys, a.Key) {
		return false
	}
	if len(f.Repeats) > 0 && !containsInt(f.Repeats, a.Repeat) {
		return false
	}
	return true
}

func containsUUID(s []uuid.UUID, v uuid.UUID) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func containsString(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// ancestorsOf walks an.Parent through byID, closest parent first,
// stopping at the root or on a missing/cyclic link (spec §9's explicit
// arena-plus-id representation for cyclic data: we never dereference a
// live pointer, only re-look-up by id, and bound the walk by the arena's
// size so a corrupt cycle can't loop forever).
func ancestorsOf(an model.Annotation, byID map[uuid.UUID]model.Annotation) []model.Annotation {
	var out []model.Annotation
	seen := make(map[uuid.UUID]bool)
	cur := an
	for cur.Parent != nil && !seen[*cur.Parent] {
		seen[*cur.Parent] = true
		parent, ok := byID[*cur.Parent]
		if !ok {
			break
		}
		out = append(out, parent)
		cur = parent
	}
	return out
}

func flattenUserEntries(labels map[uuid.UUID][]model.UserEntry) []model.UserEntry {
	var out []model.UserEntry
	for _, entries := range labels {
		out = append(out, entries...)
	}
	return out
}

// relinkParents sets each cell's resolution.Parent to the bot annotation
// id of the parent cell's resolution, by walking label paths (spec §4.4
// step 8).
func relinkParents(cells map[uuid.UUID]map[model.LabelPathKey]*Cell) {
	for _, byPath := range cells {
		for path, c := range byPath {
			parent, ok := parentPath(path)
			if !ok {
				continue
			}
			parentCell, ok := byPath[parent]
			if !ok || parentCell.Resolution == nil {
				continue
			}
			parentID := parentCell.Resolution.BotAnnotationID
			c.Resolution.Parent = &parentID
		}
	}
}
