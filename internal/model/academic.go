package model

import (
	"time"

	"github.com/google/uuid"
)

// Affiliation is an author's institutional affiliation at the time of
// publication, as reported by the source provider.
type Affiliation struct {
	Name      string  `json:"name"`
	Country   *string `json:"country,omitempty"`
	OpenAlexID *string `json:"openalex_id,omitempty"`
	S2ID       *string `json:"s2_id,omitempty"`
}

// AcademicAuthor is one entry in an AcademicItem's ordered author list.
type AcademicAuthor struct {
	Name             string        `json:"name"`
	SurnameInitials  *string       `json:"surname_initials,omitempty"`
	Email            *string       `json:"email,omitempty"`
	ORCID            *string       `json:"orcid,omitempty"`
	ScopusID         *string       `json:"scopus_id,omitempty"`
	OpenAlexID       *string       `json:"openalex_id,omitempty"`
	S2ID             *string       `json:"s2_id,omitempty"`
	DimensionsID     *string       `json:"dimensions_id,omitempty"`
	Affiliations     []Affiliation `json:"affiliations,omitempty"`
	Meta             map[string]any `json:"meta,omitempty"`
}

// AcademicItem extends Item with bibliographic metadata. Within a project,
// every non-null provider id (WosID, ScopusID, OpenAlexID, S2ID, PubmedID,
// DimensionsID) is unique — invariant 2 in spec §8.
type AcademicItem struct {
	ItemID    uuid.UUID `db:"item_id" json:"item_id"`
	ProjectID uuid.UUID `db:"project_id" json:"project_id"`

	DOI *string `db:"doi" json:"doi,omitempty"`

	WosID        *string `db:"wos_id" json:"wos_id,omitempty"`
	ScopusID     *string `db:"scopus_id" json:"scopus_id,omitempty"`
	OpenAlexID   *string `db:"openalex_id" json:"openalex_id,omitempty"`
	S2ID         *string `db:"s2_id" json:"s2_id,omitempty"`
	PubmedID     *string `db:"pubmed_id" json:"pubmed_id,omitempty"`
	DimensionsID *string `db:"dimensions_id" json:"dimensions_id,omitempty"`

	Title     string `db:"title" json:"title"`
	TitleSlug string `db:"title_slug" json:"title_slug"`

	PublicationYear *int   `db:"publication_year" json:"publication_year,omitempty"`
	Source          *string `db:"source" json:"source,omitempty"` // journal / venue

	Keywords []string         `db:"keywords" json:"keywords,omitempty"`
	Authors  []AcademicAuthor `db:"authors" json:"authors,omitempty"`

	Meta map[string]any `db:"meta" json:"meta,omitempty"`
}

// TrustedIDs returns the non-empty trusted external identifiers
// (openalex, s2, scopus, wos, pubmed, dimensions) keyed by provider.
// The result is a map, so its iteration order is not defined; for
// matching, any one of these matching wins.
func (a *AcademicItem) TrustedIDs() map[string]string {
	out := make(map[string]string, 6)
	add := func(provider string, v *string) {
		if v != nil && *v != "" {
			out[provider] = *v
		}
	}
	add("openalex_id", a.OpenAlexID)
	add("s2_id", a.S2ID)
	add("scopus_id", a.ScopusID)
	add("wos_id", a.WosID)
	add("pubmed_id", a.PubmedID)
	add("dimensions_id", a.DimensionsID)
	return out
}

// RefreshTitleSlug recomputes TitleSlug from Title. Callers must invoke
// this whenever Title changes; it is not done implicitly on field
// assignment since AcademicItem is a plain data struct.
func (a *AcademicItem) RefreshTitleSlug() {
	a.TitleSlug = TitleSlug(a.Title)
}

// AcademicItemVariant is a historical copy of an AcademicItem as seen in a
// specific Import, preserved when a duplicate was merged into the
// canonical item. AcademicItem exclusively owns its variants.
type AcademicItemVariant struct {
	ItemVariantID uuid.UUID `db:"item_variant_id" json:"item_variant_id"`
	ItemID        uuid.UUID `db:"item_id" json:"item_id"`
	ImportID      *uuid.UUID `db:"import_id" json:"import_id,omitempty"`
	ImportRevision *int      `db:"import_revision" json:"import_revision,omitempty"`

	DOI          *string `db:"doi" json:"doi,omitempty"`
	WosID        *string `db:"wos_id" json:"wos_id,omitempty"`
	ScopusID     *string `db:"scopus_id" json:"scopus_id,omitempty"`
	OpenAlexID   *string `db:"openalex_id" json:"openalex_id,omitempty"`
	S2ID         *string `db:"s2_id" json:"s2_id,omitempty"`
	PubmedID     *string `db:"pubmed_id" json:"pubmed_id,omitempty"`
	DimensionsID *string `db:"dimensions_id" json:"dimensions_id,omitempty"`

	Title           *string `db:"title" json:"title,omitempty"`
	PublicationYear *int    `db:"publication_year" json:"publication_year,omitempty"`
	Source          *string `db:"source" json:"source,omitempty"`

	Keywords []string         `db:"keywords" json:"keywords,omitempty"`
	Authors  []AcademicAuthor `db:"authors" json:"authors,omitempty"`
	Text     *string          `db:"text" json:"text,omitempty"`
	Meta     map[string]any   `db:"meta" json:"meta,omitempty"`

	TimeCreated time.Time `db:"time_created" json:"time_created"`
}
