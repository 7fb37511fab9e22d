package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nacsos-data/nacsos-core/internal/jsonl"
	"github.com/nacsos-data/nacsos-core/internal/model"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "fetch candidate items from an external source and stage them as JSONL",
	Long: `download queries an external bibliographic source (OpenAlex only, for
now) and writes the results as a line-delimited JSON file — the "revision
artifact on disk" spec §6 describes — ready for a later import run to
consume as its Source.`,
	RunE: runDownload,
}

func runDownload(cmd *cobra.Command, args []string) error {
	if kindFlag != "academic" {
		return fmt.Errorf("download: only --kind academic is supported")
	}
	if targetFlag == "" {
		return fmt.Errorf("download: --target (output JSONL path) is required")
	}
	query, err := readQueryPayload()
	if err != nil {
		return err
	}

	conf, err := loadOpenAlexConf(openAlexConf)
	if err != nil {
		return err
	}

	items, err := fetchOpenAlex(rootCtx, query, batchSize, conf)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}

	if err := jsonl.WriteAll(targetFlag, items); err != nil {
		return fmt.Errorf("download: write %s: %w", targetFlag, err)
	}
	fmt.Printf("download: wrote %d items to %s\n", len(items), targetFlag)
	return nil
}

// readAcademicItems loads a JSONL file of AcademicItem records, used by
// both convert and (eventually) an import command wiring a file-backed
// importer.Source.
func readAcademicItems(path string) ([]*model.AcademicItem, error) {
	f, err := openForRead(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var items []*model.AcademicItem
	err = jsonl.Scan(f, func(line int, rec model.AcademicItem) error {
		r := rec
		items = append(items, &r)
		return nil
	})
	return items, err
}
