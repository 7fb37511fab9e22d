// Command nacsos is the CLI surface spec §6 describes as illustrative:
// download/convert/translate subcommands sharing one set of flags.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nacsos-data/nacsos-core/internal/config"
)

// Shared flags, set as persistent flags on rootCmd the way the teacher's
// cmd/bd/main.go keeps one package-level flag set read by every
// subcommand rather than redeclaring flags per command.
var (
	configPath   string
	sourceFlag   string
	targetFlag   string
	kindFlag     string
	queryFlag    string
	queryFile    string
	openAlexConf string
	batchSize    int

	rootCtx    context.Context
	rootCancel context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "nacsos",
	Short: "nacsos - bibliographic ingestion, conversion and query tooling",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if rootCancel != nil {
			rootCancel()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "path to a project config.yaml overriding built-in defaults")
	pf.StringVar(&sourceFlag, "source", "", "input: a JSONL file path (convert)")
	pf.StringVar(&targetFlag, "target", "", "output: a file path (download/convert) or a project id (translate)")
	pf.StringVar(&kindFlag, "kind", "academic", "item kind: academic|lexis")
	pf.StringVar(&queryFlag, "query", "", "inline query payload")
	pf.StringVar(&queryFile, "query-file", "", "path to a file holding the query payload")
	pf.StringVar(&openAlexConf, "openalex-conf", "", "path to an OpenAlex client config (email + API key)")
	pf.IntVar(&batchSize, "batch-size", 200, "page size for paginated sources")

	rootCmd.AddCommand(downloadCmd, convertCmd, translateCmd)
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

func openForRead(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// readQueryPayload returns --query verbatim if set, otherwise the
// contents of --query-file. When both are set, --query is used and
// --query-file is ignored; when neither is set, it returns an error.
func readQueryPayload() (string, error) {
	if queryFlag != "" {
		return queryFlag, nil
	}
	if queryFile != "" {
		b, err := os.ReadFile(queryFile)
		if err != nil {
			return "", fmt.Errorf("read query-file: %w", err)
		}
		return string(b), nil
	}
	return "", fmt.Errorf("one of --query or --query-file is required")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
