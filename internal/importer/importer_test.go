package importer

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nacsos-data/nacsos-core/internal/apperr"
	"github.com/nacsos-data/nacsos-core/internal/model"
	"github.com/nacsos-data/nacsos-core/internal/storagesql"
)

// fakeItemStore is an in-memory ItemStore keyed by project + trusted id,
// enough to exercise the orchestrator's PASS A/PASS B decisions without a
// real database.
type fakeItemStore struct {
	byID        map[uuid.UUID]*model.AcademicItem
	byTrustedID map[string]*model.AcademicItem // provider+"|"+value -> item
	variants    []*model.AcademicItemVariant
}

func newFakeItemStore() *fakeItemStore {
	return &fakeItemStore{
		byID:        make(map[uuid.UUID]*model.AcademicItem),
		byTrustedID: make(map[string]*model.AcademicItem),
	}
}

func (f *fakeItemStore) GetItem(ctx context.Context, itemID uuid.UUID) (*model.Item, error) {
	return nil, apperr.New("fakeItemStore.GetItem", apperr.KindNotFound, nil)
}

func (f *fakeItemStore) GetAcademicItemByTrustedID(ctx context.Context, projectID uuid.UUID, provider, value string) (*model.AcademicItem, error) {
	item, ok := f.byTrustedID[provider+"|"+value]
	if !ok {
		return nil, apperr.New("fakeItemStore.GetAcademicItemByTrustedID", apperr.KindNotFound, nil)
	}
	return item, nil
}

func (f *fakeItemStore) GetAcademicItemByTitleSlug(ctx context.Context, projectID uuid.UUID, slug string) ([]*model.AcademicItem, error) {
	var out []*model.AcademicItem
	for _, it := range f.byID {
		if it.TitleSlug == slug {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeItemStore) UpsertAcademicItem(ctx context.Context, item *model.AcademicItem) error {
	f.byID[item.ItemID] = item
	for provider, value := range item.TrustedIDs() {
		f.byTrustedID[provider+"|"+value] = item
	}
	return nil
}

func (f *fakeItemStore) InsertAcademicItemVariant(ctx context.Context, variant *model.AcademicItemVariant) error {
	f.variants = append(f.variants, variant)
	return nil
}

func (f *fakeItemStore) UpsertLexisNexisItem(ctx context.Context, item *model.LexisNexisItem) error {
	return nil
}

func (f *fakeItemStore) InsertLexisNexisItemSource(ctx context.Context, src *model.LexisNexisItemSource) error {
	return nil
}

func (f *fakeItemStore) ListItemTexts(ctx context.Context, projectID uuid.UUID) ([]storagesql.ItemText, error) {
	out := make([]storagesql.ItemText, 0, len(f.byID))
	for id, it := range f.byID {
		if it.ProjectID != projectID {
			continue
		}
		out = append(out, storagesql.ItemText{ItemID: id, Text: itemText(it)})
	}
	return out, nil
}

// fakeImportStore is an in-memory ImportStore backing one import.
type fakeImportStore struct {
	imp         *model.Import
	revision    int
	memberships map[uuid.UUID]*model.M2MImportItem
	locked      bool
}

func newFakeImportStore() *fakeImportStore {
	return &fakeImportStore{memberships: make(map[uuid.UUID]*model.M2MImportItem)}
}

func (f *fakeImportStore) LockProject(ctx context.Context, projectID uuid.UUID) (func(context.Context) error, error) {
	if f.locked {
		return nil, apperr.New("fakeImportStore.LockProject", apperr.KindOperational, nil)
	}
	f.locked = true
	return func(ctx context.Context) error {
		f.locked = false
		return nil
	}, nil
}

func (f *fakeImportStore) GetOrCreateImport(ctx context.Context, projectID uuid.UUID, name, sourceType string) (*model.Import, error) {
	if f.imp == nil {
		f.imp = &model.Import{ImportID: uuid.New(), ProjectID: projectID, Name: name, SourceType: sourceType}
	}
	return f.imp, nil
}

func (f *fakeImportStore) LatestRevision(ctx context.Context, importID uuid.UUID) (int, error) {
	return f.revision, nil
}

func (f *fakeImportStore) CreateRevision(ctx context.Context, importID uuid.UUID, revision int) (*model.ImportRevision, error) {
	return &model.ImportRevision{ImportID: importID, Revision: revision}, nil
}

func (f *fakeImportStore) UpsertM2MImportItem(ctx context.Context, m model.M2MImportItem) error {
	if existing, ok := f.memberships[m.ItemID]; ok {
		if m.FirstRevision < existing.FirstRevision {
			existing.FirstRevision = m.FirstRevision
		}
		if m.LatestRevision > existing.LatestRevision {
			existing.LatestRevision = m.LatestRevision
		}
		return nil
	}
	cp := m
	f.memberships[m.ItemID] = &cp
	return nil
}

func (f *fakeImportStore) FinishRevision(ctx context.Context, rev *model.ImportRevision) error {
	f.revision = rev.Revision
	return nil
}

func academicItem(title string, openAlexID *string) *model.AcademicItem {
	it := &model.AcademicItem{Title: title, OpenAlexID: openAlexID}
	it.RefreshTitleSlug()
	return it
}

func strPtr(s string) *string { return &s }

func TestRunDedupesByTrustedID(t *testing.T) {
	items := newFakeItemStore()
	imports := newFakeImportStore()
	o := New(items, imports, slog.Default())

	projectID := uuid.New()
	first := academicItem("Climate Policy Adaptation", strPtr("10.1/abc"))
	src := func(ctx context.Context) ([]*model.AcademicItem, error) {
		return []*model.AcademicItem{first}, nil
	}
	res, err := o.Run(context.Background(), Options{ProjectID: projectID, Name: "run1", SourceType: "wos"}, src)
	require.NoError(t, err)
	require.Equal(t, 1, res.NumNew)
	require.NotNil(t, res.Revision)
	require.Equal(t, 1, *res.Revision)

	// Second run re-ingests the same OpenAlex id under a new title: should match
	// the existing item by trusted id and add a variant, not a new item.
	again := academicItem("Climate Policy Adaptation (revised)", strPtr("10.1/abc"))
	src2 := func(ctx context.Context) ([]*model.AcademicItem, error) {
		return []*model.AcademicItem{again}, nil
	}
	res2, err := o.Run(context.Background(), Options{ProjectID: projectID, Name: "run1", SourceType: "wos"}, src2)
	require.NoError(t, err)
	require.Equal(t, 0, res2.NumNew)
	require.Equal(t, 1, res2.NumUpdated)
	require.Len(t, items.byID, 1)
	require.Len(t, items.variants, 1)
}

func TestRunMergesNearDuplicateTextWithinSameBatch(t *testing.T) {
	items := newFakeItemStore()
	imports := newFakeImportStore()
	o := New(items, imports, slog.Default())

	abstract := strings.Repeat("climate policy adaptation mitigation emissions reduction strategy ", 10)
	a := &model.AcademicItem{Title: "A", Meta: map[string]any{"abstract": abstract}}
	b := &model.AcademicItem{Title: "B", Meta: map[string]any{"abstract": abstract}}
	a.RefreshTitleSlug()
	b.RefreshTitleSlug()

	src := func(ctx context.Context) ([]*model.AcademicItem, error) {
		return []*model.AcademicItem{a, b}, nil
	}
	res, err := o.Run(context.Background(), Options{ProjectID: uuid.New(), Name: "run1", SourceType: "scopus"}, src)
	require.NoError(t, err)
	require.Equal(t, 1, res.NumNew)
	require.Equal(t, 1, res.NumUpdated)
	require.Len(t, items.byID, 1)
}

// TestRunMergesNearDuplicateAgainstExistingProjectItem exercises PASS_B's
// "project texts ∪ temp-file texts" index (spec §4.1/§4.2): a candidate
// with no trusted-id match must still merge into an item already stored
// from a prior run, not be inserted as new, because the index is seeded
// with the project's existing corpus via ListItemTexts.
func TestRunMergesNearDuplicateAgainstExistingProjectItem(t *testing.T) {
	items := newFakeItemStore()
	imports := newFakeImportStore()
	o := New(items, imports, slog.Default())

	projectID := uuid.New()
	abstract := strings.Repeat("climate policy adaptation mitigation emissions reduction strategy ", 10)

	existing := &model.AcademicItem{ItemID: uuid.New(), ProjectID: projectID, Title: "Existing", Meta: map[string]any{"abstract": abstract}}
	existing.RefreshTitleSlug()
	require.NoError(t, items.UpsertAcademicItem(context.Background(), existing))

	candidate := &model.AcademicItem{Title: "Candidate", Meta: map[string]any{"abstract": abstract}}
	candidate.RefreshTitleSlug()
	src := func(ctx context.Context) ([]*model.AcademicItem, error) {
		return []*model.AcademicItem{candidate}, nil
	}

	res, err := o.Run(context.Background(), Options{ProjectID: projectID, Name: "run1", SourceType: "scopus"}, src)
	require.NoError(t, err)
	require.Equal(t, 0, res.NumNew)
	require.Equal(t, 1, res.NumUpdated)
	require.Len(t, items.byID, 1, "candidate must merge into the existing item, not insert a new one")
	require.Len(t, items.variants, 1)
	require.Equal(t, existing.ItemID, items.variants[0].ItemID)
}

func TestGatedSuppressesSmallRevisions(t *testing.T) {
	require.True(t, gated(5, 1, intPtr(100), 102))
	require.False(t, gated(5, 1, intPtr(100), 110))
	require.False(t, gated(5, 0, intPtr(100), 1))
	require.False(t, gated(5, 1, nil, 1))
	require.False(t, gated(0, 1, intPtr(100), 100))
}

func intPtr(i int) *int { return &i }

func TestProjectLockerFailsFastOnReentry(t *testing.T) {
	l := NewProjectLocker()
	id := uuid.New()
	require.NoError(t, l.TryAcquire(id))
	require.ErrorIs(t, l.TryAcquire(id), ErrAlreadyLocked)
	l.Release(id)
	require.NoError(t, l.TryAcquire(id))
}
