package model

import (
	"time"

	"github.com/google/uuid"
)

// LexisNexisItem extends Item for news articles. One logical article may
// have been syndicated across multiple outlets; each appearance is a
// LexisNexisItemSource row.
type LexisNexisItem struct {
	ItemID    uuid.UUID `db:"item_id" json:"item_id"`
	ProjectID uuid.UUID `db:"project_id" json:"project_id"`

	LexisID string `db:"lexis_id" json:"lexis_id"`

	Title string `db:"title" json:"title"`

	Sources []LexisNexisItemSource `db:"-" json:"sources,omitempty"`
}

// LexisNexisItemSource is one outlet's syndication of a LexisNexisItem.
// Invariant: (LexisID, ItemID) is unique — an outlet cannot appear twice
// for the same article.
type LexisNexisItemSource struct {
	ItemSourceID uuid.UUID `db:"item_source_id" json:"item_source_id"`
	ItemID       uuid.UUID `db:"item_id" json:"item_id"`
	LexisID      string    `db:"lexis_id" json:"lexis_id"`

	Outlet      string     `db:"outlet" json:"outlet"`
	Section     *string    `db:"section" json:"section,omitempty"`
	PublishDate *time.Time `db:"publish_date" json:"publish_date,omitempty"`

	Meta map[string]any `db:"meta" json:"meta,omitempty"`
}

// GenericItem is the minimal extension row for free-form records that do
// not carry bibliographic or news metadata (spec §3 discriminator
// "generic"). It exists so the discriminator is fully addressable by C3's
// per-discriminator allowed-field table even though no ingestion pipeline
// for it is in scope here.
type GenericItem struct {
	ItemID    uuid.UUID      `db:"item_id" json:"item_id"`
	ProjectID uuid.UUID      `db:"project_id" json:"project_id"`
	Title     *string        `db:"title" json:"title,omitempty"`
	Meta      map[string]any `db:"meta" json:"meta,omitempty"`
}

// TwitterItem is the minimal extension row for the "twitter" discriminator.
type TwitterItem struct {
	ItemID    uuid.UUID      `db:"item_id" json:"item_id"`
	ProjectID uuid.UUID      `db:"project_id" json:"project_id"`
	TwitterID string         `db:"twitter_id" json:"twitter_id"`
	AuthorID  *string        `db:"author_id" json:"author_id,omitempty"`
	CreatedAt *time.Time     `db:"created_at" json:"created_at,omitempty"`
	Meta      map[string]any `db:"meta" json:"meta,omitempty"`
}
