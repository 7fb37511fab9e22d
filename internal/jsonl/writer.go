package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteAll atomically (re)writes path with one JSON-encoded line per
// element of recs: it writes to a temp file in the same directory, then
// renames it over path, so a reader never observes a partial file.
func WriteAll[T any](path string, recs []T) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("jsonl: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	for _, rec := range recs {
		if encErr := enc.Encode(rec); encErr != nil {
			_ = tmp.Close()
			return fmt.Errorf("jsonl: encode record: %w", encErr)
		}
	}
	if err = w.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("jsonl: flush: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("jsonl: close temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("jsonl: rename into place: %w", err)
	}
	return nil
}
