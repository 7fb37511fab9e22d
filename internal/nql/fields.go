package nql

import "github.com/nacsos-data/nacsos-core/internal/model"

// allowedFields is the static per-discriminator table of item-table
// columns a FieldFilter/FieldFilters may address (spec
// §4.3 "Allowed fields per item type"). Requesting anything else is
// InvalidNQL.
var allowedFields = map[model.ItemType]map[string]bool{
	model.ItemTypeAcademic: {
		"title": true, "abstract": true, "pub_year": true, "source": true,
		"item_id": true, "openalex_id": true, "doi": true, "date": true,
	},
	model.ItemTypeLexis: {
		"title": true, "item_id": true, "date": true,
	},
	model.ItemTypeGeneric: {
		"title": true, "item_id": true,
	},
	model.ItemTypeTwitter: {
		"item_id": true, "date": true,
	},
}

// sqlColumn maps an NQL field name to the underlying SQL column
// expression. title/abstract both read from the items table; "abstract"
// is an alias for the shared text column per spec §3.
func sqlColumn(field string) string {
	switch field {
	case "abstract":
		return "items.text"
	case "pub_year":
		return "academic_items.publication_year"
	case "date":
		return "items.time_created"
	default:
		return "items." + field
	}
}

func isAllowed(discriminator model.ItemType, field string) bool {
	set, ok := allowedFields[discriminator]
	if !ok {
		return false
	}
	return set[field]
}
