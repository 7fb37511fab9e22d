package resolution

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/nacsos-data/nacsos-core/internal/apperr"
	"github.com/nacsos-data/nacsos-core/internal/idgen"
	"github.com/nacsos-data/nacsos-core/internal/model"
	"github.com/nacsos-data/nacsos-core/internal/storagesql"
	"github.com/nacsos-data/nacsos-core/internal/telemetry"
)

// entryFingerprint is one user entry's recorded fingerprint inside a
// committed snapshot's meta (spec §4.4 "Persistence (commit path)").
type entryFingerprint struct {
	OrderKey int                   `json:"order_key"`
	PathKey  model.LabelPathKey    `json:"path_key"`
	UserID   uuid.UUID             `json:"user_id"`
	Value    model.AnnotationValue `json:"value"`
}

// resolutionRef locates one persisted BotAnnotation by the same
// (order_key, path_key) coordinates as entryFingerprint.
type resolutionRef struct {
	OrderKey        int                `json:"order_key"`
	PathKey         model.LabelPathKey `json:"path_key"`
	BotAnnotationID uuid.UUID          `json:"bot_annotation_id"`
}

// CommitOptions configures persisting an accepted Proposal.
type CommitOptions struct {
	ProjectID uuid.UUID
	Name      string
	Strategy  Strategy

	// ExistingMetadataID selects the update path: the same
	// BotAnnotationMetadata row is reused rather than a fresh one
	// created, per spec §4.4 "Update path".
	ExistingMetadataID *uuid.UUID
}

type pendingRow struct {
	path model.LabelPathKey
	ba   model.BotAnnotation
}

// Commit persists an accepted Proposal: a BotAnnotationMetadata row
// (kind RESOLVE) carrying the fingerprint snapshot, followed by every
// cell's resolution inserted as a BotAnnotation, parents-before-children
// (spec §4.4 "Persistence (commit path)", spec §5 ordering guarantee).
//
// The update path (re-resolving against ExistingMetadataID) shares this
// same code: Resolve is expected to have already run with that
// metadata's snapshot as prior_snapshot, so cells carry
// CHANGED/UNCHANGED/NEW status; InsertBotAnnotations is an upsert by
// (bot_annotation_metadata_id, item_id, key, parent, repeat) at the
// storage layer, which gives "existing rows updated, new ones inserted"
// for free. Deleting rows whose cell no longer exists is a storage-layer
// diff against the previous meta this package does not perform
// directly — the fingerprint snapshot Commit writes here is exactly what
// that diff needs on the next run.
func Commit(ctx context.Context, store storagesql.AnnotationStore, proposal *Proposal, opts CommitOptions) (*model.BotAnnotationMetadata, error) {
	if proposal.SchemeInfo == nil {
		return nil, apperr.New("resolution.Commit", apperr.KindInvalidResolution, nil)
	}

	itemOrder := make(map[uuid.UUID]int, len(proposal.Items))
	for i, id := range proposal.Items {
		itemOrder[id] = i
	}

	var entries []entryFingerprint
	var refs []resolutionRef
	var rows []pendingRow

	for itemID, byPath := range proposal.Matrix {
		orderKey, ok := itemOrder[itemID]
		if !ok {
			orderKey = -1
		}
		for path, cell := range byPath {
			for _, userEntries := range cell.Labels {
				for _, ue := range userEntries {
					entries = append(entries, entryFingerprint{
						OrderKey: orderKey,
						PathKey:  path,
						UserID:   ue.UserID,
						Value:    ue.Value,
					})
				}
			}
			if cell.Resolution == nil {
				continue
			}
			refs = append(refs, resolutionRef{
				OrderKey:        orderKey,
				PathKey:         path,
				BotAnnotationID: cell.Resolution.BotAnnotationID,
			})
			rows = append(rows, pendingRow{path: path, ba: *cell.Resolution})
		}
	}

	// Parents sort before children: a label path's depth (its "/" count)
	// only ever increases from parent to child, so sorting by depth alone
	// is a valid topological order without reconstructing the tree.
	sort.SliceStable(rows, func(i, j int) bool {
		return strings.Count(string(rows[i].path), "/") < strings.Count(string(rows[j].path), "/")
	})

	metaID := idgen.New()
	if opts.ExistingMetadataID != nil {
		metaID = *opts.ExistingMetadataID
	}

	annotations := make([]model.BotAnnotation, len(rows))
	for i, r := range rows {
		ba := r.ba
		ba.BotAnnotationMetadataID = metaID
		annotations[i] = ba
	}

	meta := &model.BotAnnotationMetadata{
		BotAnnotationMetadataID: metaID,
		ProjectID:               opts.ProjectID,
		AnnotationSchemeID:      proposal.SchemeInfo.AnnotationSchemeID,
		Name:                    opts.Name,
		Kind:                    model.BotResolve,
		Config: map[string]any{
			"strategy":    string(opts.Strategy),
			"entries":     entries,
			"resolutions": refs,
		},
	}

	err := telemetry.Suspend(ctx, "resolution", "commit", func(ctx context.Context) error {
		if opts.ExistingMetadataID == nil {
			if err := store.CreateBotAnnotationMetadata(ctx, meta); err != nil {
				return err
			}
		}
		return store.InsertBotAnnotations(ctx, annotations)
	})
	if err != nil {
		return nil, apperr.Wrap("resolution.Commit", err)
	}
	return meta, nil
}
