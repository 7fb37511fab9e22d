package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nacsos-data/nacsos-core/internal/jsonl"
	"github.com/nacsos-data/nacsos-core/internal/model"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "normalize a staged JSONL file of items and rewrite it",
	Long: `convert reads --source, a JSONL file of --kind records, recomputes
derived fields (title slugs), drops records missing the minimum required
text (spec §6's record-reader contract: "a non-null text or title"), and
rewrites the result to --target.`,
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	if sourceFlag == "" || targetFlag == "" {
		return fmt.Errorf("convert: --source and --target are both required")
	}

	switch kindFlag {
	case "academic":
		return convertAcademic(sourceFlag, targetFlag)
	case "lexis":
		return convertLexis(sourceFlag, targetFlag)
	default:
		return fmt.Errorf("convert: unsupported --kind %q", kindFlag)
	}
}

func convertAcademic(source, target string) error {
	items, err := readAcademicItems(source)
	if err != nil {
		return fmt.Errorf("convert: %w", err)
	}

	var out []*model.AcademicItem
	var skipped int
	for _, item := range items {
		abstract, _ := item.Meta["abstract"].(string)
		if item.Title == "" && abstract == "" {
			skipped++
			continue
		}
		item.RefreshTitleSlug()
		out = append(out, item)
	}

	if err := jsonl.WriteAll(target, out); err != nil {
		return fmt.Errorf("convert: write %s: %w", target, err)
	}
	fmt.Printf("convert: wrote %d items to %s (%d skipped)\n", len(out), target, skipped)
	return nil
}

func convertLexis(source, target string) error {
	f, err := openForRead(source)
	if err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	defer f.Close()

	var out []*model.LexisNexisItem
	var skipped int
	err = jsonl.Scan(f, func(line int, rec model.LexisNexisItem) error {
		if rec.Title == "" {
			skipped++
			return nil
		}
		r := rec
		out = append(out, &r)
		return nil
	})
	if err != nil {
		return fmt.Errorf("convert: %s: %w", source, err)
	}

	if err := jsonl.WriteAll(target, out); err != nil {
		return fmt.Errorf("convert: write %s: %w", target, err)
	}
	fmt.Printf("convert: wrote %d items to %s (%d skipped)\n", len(out), target, skipped)
	return nil
}
