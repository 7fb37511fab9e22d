package jsonl

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type record struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

func TestWriteAllThenReadAll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.jsonl")

	recs := []record{{ID: "a", Count: 1}, {ID: "b", Count: 2}}
	require.NoError(t, WriteAll(path, recs))

	got, err := ReadAll[record](path)
	require.NoError(t, err)
	require.Equal(t, recs, got)
}

func TestScanSkipsBlankLines(t *testing.T) {
	r := strings.NewReader("{\"id\":\"a\",\"count\":1}\n\n{\"id\":\"b\",\"count\":2}\n")

	var ids []string
	err := Scan(r, func(_ int, rec record) error {
		ids = append(ids, rec.ID)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, ids)
}

func TestScanReportsLineNumberOnBadJSON(t *testing.T) {
	r := strings.NewReader("{\"id\":\"a\",\"count\":1}\nnot json\n")

	err := Scan(r, func(_ int, _ record) error { return nil })
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
}
