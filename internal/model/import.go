package model

import (
	"time"

	"github.com/google/uuid"
)

// M2MType distinguishes membership added directly by an import run
// (explicit) from membership inferred as a side effect (derived, e.g. a
// variant's canonical item pulled in by a merge).
type M2MType string

const (
	M2MExplicit M2MType = "explicit"
	M2MDerived  M2MType = "derived"
)

// Import is a named, typed ingestion scope (spec §3). A per-project mutex
// (Project.ImportMutex) prevents two imports from racing on the same
// project; see internal/importer.
type Import struct {
	ImportID  uuid.UUID `db:"import_id" json:"import_id"`
	ProjectID uuid.UUID `db:"project_id" json:"project_id"`

	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`
	SourceType  string  `db:"source_type" json:"source_type"` // e.g. "wos", "scopus", "openalex", "lexis"

	// Config carries the source-specific ingestion configuration (query
	// strings, API credentials references, batch sizes); it is opaque at
	// this layer, deliberately generic (spec §9 "dynamic config object").
	Config map[string]any `db:"config" json:"config,omitempty"`

	TimeCreated  time.Time  `db:"time_created" json:"time_created"`
	TimeStarted  *time.Time `db:"time_started" json:"time_started,omitempty"`
	TimeFinished *time.Time `db:"time_finished" json:"time_finished,omitempty"`
}

// ImportRevision is a monotonically counted (1..) per-import snapshot of
// one ingestion run.
type ImportRevision struct {
	ImportID uuid.UUID `db:"import_id" json:"import_id"`
	Revision int       `db:"revision" json:"revision"`

	NumItemsRetrieved *int `db:"num_items_retrieved" json:"num_items_retrieved,omitempty"`
	NumItemsNew       int  `db:"num_items_new" json:"num_items_new"`
	NumItemsUpdated   int  `db:"num_items_updated" json:"num_items_updated"`
	NumItemsRemoved   int  `db:"num_items_removed" json:"num_items_removed"`

	TimeCreated time.Time `db:"time_created" json:"time_created"`
}

// M2MImportItem is the many-to-many membership row between an Import and
// an Item. FirstRevision/LatestRevision bound the range of revisions in
// which the item was part of this import's result set (spec invariant 3:
// FirstRevision <= LatestRevision <= the run's current revision number).
type M2MImportItem struct {
	ImportID uuid.UUID `db:"import_id" json:"import_id"`
	ItemID   uuid.UUID `db:"item_id" json:"item_id"`
	Type     M2MType   `db:"type" json:"type"`

	FirstRevision  int `db:"first_revision" json:"first_revision"`
	LatestRevision int `db:"latest_revision" json:"latest_revision"`
}

// ActiveInRevision reports whether this membership is part of the
// import's result set as of revision r (spec §3: "the set of items
// active in revision N is computable" from first/latest_revision).
func (m M2MImportItem) ActiveInRevision(r int) bool {
	return m.FirstRevision <= r && r <= m.LatestRevision
}
