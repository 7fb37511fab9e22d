package importer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/nacsos-data/nacsos-core/internal/model"
)

// fingerprint hashes the persisted columns of an AcademicItem so PASS A
// can tell a no-op re-ingestion of the same record from a genuine change
// worth writing as an AcademicItemVariant, without a full field-by-field
// diff (spec §4.2 "hash the persisted columns to skip no-op variants").
func fingerprint(item *model.AcademicItem) string {
	var b strings.Builder
	writeField(&b, "doi", item.DOI)
	writeField(&b, "wos", item.WosID)
	writeField(&b, "scopus", item.ScopusID)
	writeField(&b, "openalex", item.OpenAlexID)
	writeField(&b, "s2", item.S2ID)
	writeField(&b, "pubmed", item.PubmedID)
	writeField(&b, "dimensions", item.DimensionsID)
	b.WriteString(fmt.Sprintf("title=%s\n", item.Title))
	if item.PublicationYear != nil {
		b.WriteString(fmt.Sprintf("year=%d\n", *item.PublicationYear))
	}
	writeField(&b, "source", item.Source)

	keywords := append([]string(nil), item.Keywords...)
	sort.Strings(keywords)
	b.WriteString("keywords=" + strings.Join(keywords, ",") + "\n")

	names := make([]string, len(item.Authors))
	for i, a := range item.Authors {
		names[i] = a.Name
	}
	b.WriteString("authors=" + strings.Join(names, ",") + "\n")

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func writeField(b *strings.Builder, name string, v *string) {
	if v != nil {
		fmt.Fprintf(b, "%s=%s\n", name, *v)
	}
}
