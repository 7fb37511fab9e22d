// Package importer implements the C2 import orchestrator: the state
// machine that turns a stream of academic-item candidates from a source
// (WoS, Scopus, OpenAlex, ...) into Item/AcademicItem rows deduplicated
// against everything already in the project, recording the run as an
// Import/ImportRevision/M2MImportItem trail (spec §4.2).
package importer

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nacsos-data/nacsos-core/internal/apperr"
	"github.com/nacsos-data/nacsos-core/internal/dedupe"
	"github.com/nacsos-data/nacsos-core/internal/idgen"
	"github.com/nacsos-data/nacsos-core/internal/model"
	"github.com/nacsos-data/nacsos-core/internal/storagesql"
	"github.com/nacsos-data/nacsos-core/internal/telemetry"
)

// Source yields the candidate set for one pass over the import's data.
// It must be re-invocable: the orchestrator calls it once for PASS_A
// (exact-id matching) and again for PASS_B (text-index matching), so a
// file- or API-backed source must re-open/re-request rather than assume
// a single consumption (spec §6).
type Source func(ctx context.Context) ([]*model.AcademicItem, error)

// Options configures one import run.
type Options struct {
	ProjectID  uuid.UUID
	Name       string
	SourceType string

	// MinUpdateSize is the revision gate's threshold: gated reports true
	// when the previous revision's NumItemsRetrieved is known and the
	// absolute difference from this run's candidate count is smaller than
	// MinUpdateSize (a nil prior count never gates; zero disables gating).
	// Run reads the prior count through latestRevisionInfo, which always
	// reports it as nil, so Run never skips a revision on this threshold.
	MinUpdateSize int

	// Vectorizer bounds control the dedupe text index built fresh for
	// this run (spec §4.1). Zero MaxSlop and CandidatesK fall back to
	// dedupe's defaults; a zero MaxFeatures leaves the vocabulary uncapped.
	MaxSlop     float64
	MaxFeatures int
	CandidatesK int
}

// Result reports what a run did. Revision is nil when the run was gated
// (spec §4.2: "(import_id, revision_counter | null)").
type Result struct {
	ImportID uuid.UUID
	Revision *int

	NumNew     int
	NumUpdated int
	NumSkipped int
}

// Orchestrator runs import jobs against the storage interfaces, holding
// an in-process lock supplementing the persisted Project.ImportMutex.
type Orchestrator struct {
	Items   storagesql.ItemStore
	Imports storagesql.ImportStore
	Locker  *ProjectLocker
	Log     *slog.Logger
}

// New returns an Orchestrator with a fresh in-process locker.
func New(items storagesql.ItemStore, imports storagesql.ImportStore, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{Items: items, Imports: imports, Locker: NewProjectLocker(), Log: log}
}

// Run executes the full import state machine described in spec §4.2:
// lock the project, get-or-create the Import, determine (and possibly
// gate) the next revision, run the two-pass candidate scan against a
// freshly built duplicate index, and flush/commit.
func (o *Orchestrator) Run(ctx context.Context, opts Options, src Source) (*Result, error) {
	if err := o.Locker.TryAcquire(opts.ProjectID); err != nil {
		return nil, err
	}
	defer o.Locker.Release(opts.ProjectID)

	unlock, err := o.Imports.LockProject(ctx, opts.ProjectID)
	if err != nil {
		return nil, apperr.Wrap("importer.LockProject", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = unlock(ctx)
		}
	}()

	imp, err := o.Imports.GetOrCreateImport(ctx, opts.ProjectID, opts.Name, opts.SourceType)
	if err != nil {
		return nil, apperr.Wrap("importer.GetOrCreateImport", err)
	}

	candidates, err := src(ctx)
	if err != nil {
		return nil, apperr.Wrap("importer.source.passA", err)
	}

	prevRevision, prevRetrieved, err := o.latestRevisionInfo(ctx, imp.ImportID)
	if err != nil {
		return nil, apperr.Wrap("importer.LatestRevision", err)
	}
	if gated(opts.MinUpdateSize, prevRevision, prevRetrieved, len(candidates)) {
		if err := unlock(ctx); err != nil {
			return nil, apperr.Wrap("importer.unlock", err)
		}
		committed = true
		return &Result{ImportID: imp.ImportID, Revision: nil}, nil
	}

	nextRevision := prevRevision + 1
	rev, err := o.Imports.CreateRevision(ctx, imp.ImportID, nextRevision)
	if err != nil {
		return nil, apperr.Wrap("importer.CreateRevision", err)
	}

	result := &Result{ImportID: imp.ImportID}

	// PASS A: resolve candidates against trusted external ids. A match
	// updates the existing canonical item (new variant only if the
	// fingerprint changed) and its membership; anything unmatched spills
	// into the text-index pass.
	spill := make([]*model.AcademicItem, 0, len(candidates))
	for _, c := range candidates {
		existing, err := o.matchTrustedID(ctx, opts.ProjectID, c)
		if err != nil {
			o.Log.Error("pass_a lookup failed", "error", err)
			result.NumSkipped++
			continue
		}
		if existing == nil {
			spill = append(spill, c)
			continue
		}
		if err := o.recordMatch(ctx, imp.ImportID, nextRevision, existing, c); err != nil {
			o.Log.Error("pass_a record failed", "error", err)
			result.NumSkipped++
			continue
		}
		result.NumUpdated++
	}

	existingCorpus, err := o.loadExistingTextCorpus(ctx, opts.ProjectID)
	if err != nil {
		return nil, apperr.Wrap("importer.loadExistingTextCorpus", err)
	}

	vectorizer := dedupe.NewVectorizer(opts.MaxFeatures)
	idx := dedupe.New(vectorizer, opts.MaxSlop, opts.CandidatesK)

	// Spill candidates are pre-assigned the id they'll be stored under if
	// they turn out to be canonical, so the index's id space for "new"
	// entries is the same uuid space as storage: a later candidate's
	// match resolving to an earlier one's id is always directly usable as
	// an existing item id once that earlier candidate has been written.
	newEntries := make([]dedupe.ItemEntry, 0, len(spill))
	byID := make(map[uuid.UUID]*model.AcademicItem, len(spill))
	for _, c := range spill {
		c.ItemID = idgen.New()
		byID[c.ItemID] = c
		newEntries = append(newEntries, dedupe.ItemEntry{ItemID: c.ItemID.String(), Text: itemText(c)})
	}

	err = telemetry.Suspend(ctx, "importer", "build_index", func(ctx context.Context) error {
		idx.Init(existingCorpus, newEntries)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// PASS B: resolve the spill set against the text index, inserting new
	// canonical items and merging duplicates into whichever item (stored
	// before this run, or already written earlier in this same pass) the
	// index resolves them to.
	for _, entry := range newEntries {
		id, _ := uuid.Parse(entry.ItemID)
		c := byID[id]

		var dupOf string
		err := telemetry.Suspend(ctx, "importer", "test_duplicate", func(ctx context.Context) error {
			dupOf = idx.Test(entry)
			return nil
		})
		if err != nil {
			result.NumSkipped++
			continue
		}

		if dupOf == "" {
			c.ProjectID = opts.ProjectID
			c.RefreshTitleSlug()
			if err := withRetry(ctx, func() error { return o.Items.UpsertAcademicItem(ctx, c) }); err != nil {
				o.Log.Error("pass_b insert failed", "error", err)
				result.NumSkipped++
				continue
			}
			idx.RegisterStored(entry.ItemID, "")
			if err := o.upsertMembership(ctx, imp.ImportID, c.ItemID, nextRevision); err != nil {
				o.Log.Error("pass_b membership failed", "error", err)
				result.NumSkipped++
				continue
			}
			result.NumNew++
			continue
		}

		canonicalID, err := uuid.Parse(dupOf)
		if err != nil {
			o.Log.Error("pass_b index returned unparseable id", "error", err)
			result.NumSkipped++
			continue
		}
		idx.RegisterStored(entry.ItemID, dupOf)
		if err := o.mergeVariant(ctx, canonicalID, imp.ImportID, nextRevision, c); err != nil {
			o.Log.Error("pass_b merge failed", "error", err)
			result.NumSkipped++
			continue
		}
		if err := o.upsertMembership(ctx, imp.ImportID, canonicalID, nextRevision); err != nil {
			o.Log.Error("pass_b membership failed", "error", err)
			result.NumSkipped++
			continue
		}
		result.NumUpdated++
	}

	numRetrieved := len(candidates)
	rev.NumItemsRetrieved = &numRetrieved
	rev.NumItemsNew = result.NumNew
	rev.NumItemsUpdated = result.NumUpdated
	if err := o.Imports.FinishRevision(ctx, rev); err != nil {
		return nil, apperr.Wrap("importer.FinishRevision", err)
	}

	if err := unlock(ctx); err != nil {
		return nil, apperr.Wrap("importer.unlock", err)
	}
	committed = true

	rv := nextRevision
	result.Revision = &rv
	return result, nil
}

// gated reports whether this run's candidate count is too close to the
// previous revision's to warrant a new revision. It never fires for the
// very first revision, when gating is disabled, or when the previous
// revision never recorded NumItemsRetrieved (spec §9 open question).
func gated(minUpdateSize, prevRevision int, prevRetrieved *int, numCandidates int) bool {
	if minUpdateSize <= 0 || prevRevision == 0 || prevRetrieved == nil {
		return false
	}
	diff := numCandidates - *prevRetrieved
	if diff < 0 {
		diff = -diff
	}
	return diff < minUpdateSize
}

// latestRevisionInfo reports the previous revision number (0 if none) and
// its NumItemsRetrieved. ImportStore.LatestRevision returns only the
// revision counter, so the count is always nil, whether or not a prior
// revision exists, and gated never reports true for a run.
func (o *Orchestrator) latestRevisionInfo(ctx context.Context, importID uuid.UUID) (int, *int, error) {
	rev, err := o.Imports.LatestRevision(ctx, importID)
	if err != nil {
		return 0, nil, err
	}
	return rev, nil, nil
}

// matchTrustedID looks up c's trusted external ids (spec order is
// irrelevant; the first hit wins) against existing canonical items.
func (o *Orchestrator) matchTrustedID(ctx context.Context, projectID uuid.UUID, c *model.AcademicItem) (*model.AcademicItem, error) {
	for provider, value := range c.TrustedIDs() {
		existing, err := o.Items.GetAcademicItemByTrustedID(ctx, projectID, provider, value)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				continue
			}
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}
	return nil, nil
}

// recordMatch handles a PASS A trusted-id hit: it writes a variant only
// if the candidate's fingerprint differs from what's already stored, and
// always extends the item's membership in this import to the current
// revision.
func (o *Orchestrator) recordMatch(ctx context.Context, importID uuid.UUID, revision int, existing, candidate *model.AcademicItem) error {
	if fingerprint(existing) != fingerprint(candidate) {
		if err := o.mergeVariant(ctx, existing.ItemID, importID, revision, candidate); err != nil {
			return err
		}
	}
	return o.upsertMembership(ctx, importID, existing.ItemID, revision)
}

// loadExistingTextCorpus streams every item already stored for the
// project so PASS_B's index is built over "project texts ∪ temp-file
// texts" (spec §4.1, §4.2 "BUILD_INDEX"), not just this run's
// candidates. An empty corpus is valid — a project's first import has
// nothing to dedupe against.
func (o *Orchestrator) loadExistingTextCorpus(ctx context.Context, projectID uuid.UUID) ([]dedupe.ItemEntry, error) {
	texts, err := o.Items.ListItemTexts(ctx, projectID)
	if err != nil {
		return nil, err
	}
	entries := make([]dedupe.ItemEntry, len(texts))
	for i, t := range texts {
		entries[i] = dedupe.ItemEntry{ItemID: t.ItemID.String(), Text: t.Text}
	}
	return entries, nil
}

func (o *Orchestrator) mergeVariant(ctx context.Context, canonicalID, importID uuid.UUID, revision int, c *model.AcademicItem) error {
	variant := &model.AcademicItemVariant{
		ItemVariantID:   idgen.New(),
		ItemID:          canonicalID,
		ImportID:        &importID,
		ImportRevision:  &revision,
		DOI:             c.DOI,
		WosID:           c.WosID,
		ScopusID:        c.ScopusID,
		OpenAlexID:      c.OpenAlexID,
		S2ID:            c.S2ID,
		PubmedID:        c.PubmedID,
		DimensionsID:    c.DimensionsID,
		Title:           &c.Title,
		PublicationYear: c.PublicationYear,
		Source:          c.Source,
		Keywords:        c.Keywords,
		Authors:         c.Authors,
		Meta:            c.Meta,
	}
	return withRetry(ctx, func() error { return o.Items.InsertAcademicItemVariant(ctx, variant) })
}

func (o *Orchestrator) upsertMembership(ctx context.Context, importID, itemID uuid.UUID, revision int) error {
	m := model.M2MImportItem{
		ImportID:       importID,
		ItemID:         itemID,
		Type:           model.M2MExplicit,
		FirstRevision:  revision,
		LatestRevision: revision,
	}
	return withRetry(ctx, func() error { return o.Imports.UpsertM2MImportItem(ctx, m) })
}

// itemText is the text PASS_B's duplicate index matches on: the
// abstract when the source captured one in Meta, otherwise the title.
func itemText(c *model.AcademicItem) string {
	if c.Meta != nil {
		if abstract, ok := c.Meta["abstract"].(string); ok {
			return abstract
		}
	}
	return c.Title
}
