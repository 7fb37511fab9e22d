package storagesql

// Migrations enumerates the goose-managed migration files expected to
// exist under a "migrations/" directory alongside the binary, in apply
// order. This package does not ship or run them — the engine they target
// is out of scope (spec §1) — but the ordering is the authoritative
// source for what a deployment's migrations/ tree must contain, each file
// delimited with the usual "-- +goose Up" / "-- +goose Down" markers.
var Migrations = []string{
	"0001_items.sql",              // items, academic_items, academic_item_variants
	"0002_lexis_generic_twitter.sql", // lexis_nexis_items(+sources), generic_items, twitter_items
	"0003_imports.sql",            // imports, import_revisions, m2m_import_items
	"0004_annotations.sql",        // annotation_schemes, assignment_scopes, assignments, annotations
	"0005_bot_annotations.sql",    // bot_annotation_metadata, bot_annotations
}
