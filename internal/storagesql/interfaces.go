package storagesql

import (
	"context"

	"github.com/google/uuid"

	"github.com/nacsos-data/nacsos-core/internal/model"
)

// ItemStore is the read/write surface over items and their per-discriminator
// extension tables that internal/importer and internal/nql depend on.
// Implementations talk to the relational engine behind *sqlx.DB; none is
// provided here, since the engine itself is out of scope.
type ItemStore interface {
	GetItem(ctx context.Context, itemID uuid.UUID) (*model.Item, error)
	GetAcademicItemByTrustedID(ctx context.Context, projectID uuid.UUID, provider, value string) (*model.AcademicItem, error)
	GetAcademicItemByTitleSlug(ctx context.Context, projectID uuid.UUID, slug string) ([]*model.AcademicItem, error)
	UpsertAcademicItem(ctx context.Context, item *model.AcademicItem) error
	InsertAcademicItemVariant(ctx context.Context, variant *model.AcademicItemVariant) error

	UpsertLexisNexisItem(ctx context.Context, item *model.LexisNexisItem) error
	InsertLexisNexisItemSource(ctx context.Context, src *model.LexisNexisItemSource) error

	// ListItemTexts streams every existing canonical item's dedupe text
	// (abstract if present, else title) for a project, so PASS_B's
	// duplicate index can be built over "project texts ∪ temp-file
	// texts" (spec §4.1, §4.2) rather than only this run's candidates.
	// Implementations should page internally; callers get the full set
	// back since the index must see the whole corpus before Init.
	ListItemTexts(ctx context.Context, projectID uuid.UUID) ([]ItemText, error)
}

// ItemText is one existing item's id and dedupe text, as returned by
// ItemStore.ListItemTexts.
type ItemText struct {
	ItemID uuid.UUID
	Text   string
}

// ImportStore manages Import/ImportRevision/M2MImportItem rows, backing
// the C2 orchestrator's state machine (spec §4.2).
type ImportStore interface {
	LockProject(ctx context.Context, projectID uuid.UUID) (unlock func(context.Context) error, err error)
	GetOrCreateImport(ctx context.Context, projectID uuid.UUID, name string, sourceType string) (*model.Import, error)
	LatestRevision(ctx context.Context, importID uuid.UUID) (int, error)
	CreateRevision(ctx context.Context, importID uuid.UUID, revision int) (*model.ImportRevision, error)
	UpsertM2MImportItem(ctx context.Context, m model.M2MImportItem) error
	FinishRevision(ctx context.Context, rev *model.ImportRevision) error
}

// AnnotationStore backs the C4 resolution engine's read side: pulling
// scheme, scopes, assignments, and annotations to populate a
// model.ResolutionMatrix, and its write side: persisting BotAnnotation
// rows produced by a resolution run.
type AnnotationStore interface {
	GetScheme(ctx context.Context, schemeID uuid.UUID) (*model.AnnotationScheme, error)
	ListAssignmentScopes(ctx context.Context, schemeID uuid.UUID) ([]model.AssignmentScope, error)
	ListAssignments(ctx context.Context, scopeID uuid.UUID) ([]model.Assignment, error)
	ListAnnotations(ctx context.Context, assignmentID uuid.UUID) ([]model.Annotation, error)

	CreateBotAnnotationMetadata(ctx context.Context, meta *model.BotAnnotationMetadata) error
	InsertBotAnnotations(ctx context.Context, items []model.BotAnnotation) error

	// LoadPriorSnapshot reconstructs a model.ResolutionSnapshot for a prior
	// BotAnnotationMetadata run: per (item, label_path), every user's
	// fingerprinted value (from that metadata's Config.entries) plus the
	// BotAnnotationID and resolved AnnotationValue actually committed for
	// the cell (Config.resolutions joined against the BotAnnotation rows
	// it references). A metadata id with no prior run returns (nil, nil).
	LoadPriorSnapshot(ctx context.Context, metadataID uuid.UUID) (*model.ResolutionSnapshot, error)
}

// QueryStore executes the SQL produced by internal/nql and streams back
// matching item ids.
type QueryStore interface {
	RunItemQuery(ctx context.Context, sql string, args []any) ([]uuid.UUID, error)
}
