package model

import (
	"time"

	"github.com/google/uuid"
)

// ItemType discriminates which extension table an Item joins to.
type ItemType string

const (
	ItemTypeAcademic ItemType = "academic"
	ItemTypeLexis    ItemType = "lexis"
	ItemTypeGeneric  ItemType = "generic"
	ItemTypeTwitter  ItemType = "twitter"
)

// Valid reports whether t is one of the known discriminators.
func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeAcademic, ItemTypeLexis, ItemTypeGeneric, ItemTypeTwitter:
		return true
	default:
		return false
	}
}

// Item is the polymorphic root of the data model. Every concrete record
// (a paper, a news article, a tweet, a generic note) has exactly one Item
// row plus one row in the extension table named by Type.
type Item struct {
	ItemID    uuid.UUID `db:"item_id" json:"item_id"`
	ProjectID uuid.UUID `db:"project_id" json:"project_id"`
	Type      ItemType  `db:"type" json:"type"`

	// Text is the primary payload used for near-duplicate detection and
	// full-text style filtering: an abstract for academic items, the
	// article body or teaser for lexis items, a status for generic/twitter.
	Text string `db:"text" json:"text"`

	TimeCreated time.Time `db:"time_created" json:"time_created"`
}

// Project owns all Items created under it (cascade delete) and serializes
// import runs via ImportMutex (see internal/importer).
type Project struct {
	ProjectID uuid.UUID `db:"project_id" json:"project_id"`
	Name      string    `db:"name" json:"name"`

	// ImportMutex is true while an import_academic_items run holds the
	// project-level lock (spec §4.2/§5). It is a persisted boolean so the
	// lock survives process restarts; see internal/importer.ProjectLocker.
	ImportMutex bool `db:"import_mutex" json:"import_mutex"`
}
