package importer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nacsos-data/nacsos-core/internal/model"
)

func TestFingerprintStableAcrossEqualCopies(t *testing.T) {
	a := academicItem("Same Title", strPtr("oa-1"))
	b := academicItem("Same Title", strPtr("oa-1"))
	require.Equal(t, fingerprint(a), fingerprint(b))
}

func TestFingerprintChangesWithTitle(t *testing.T) {
	a := academicItem("Title One", strPtr("oa-1"))
	b := academicItem("Title Two", strPtr("oa-1"))
	require.NotEqual(t, fingerprint(a), fingerprint(b))
}

func TestFingerprintIgnoresKeywordOrder(t *testing.T) {
	a := &model.AcademicItem{Title: "T", Keywords: []string{"b", "a"}}
	b := &model.AcademicItem{Title: "T", Keywords: []string{"a", "b"}}
	require.Equal(t, fingerprint(a), fingerprint(b))
}
