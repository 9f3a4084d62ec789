package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ikb/internal/etl"
)

var (
	importFormat string
	importDryRun bool
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import incident records from a CSV file",
	Long: `Load incidents from a CSV export into the store and rebuild the search
index. Rows missing an incident id or occurrence date are skipped and reported.
Use --dry-run to validate a file without writing anything.`,
	Args: cobra.ExactArgs(1),
	Run:  runImport,
}

func init() {
	importCmd.Flags().StringVar(&importFormat, "format", "human", "Output format (json, human)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate the file without writing")
	rootCmd.AddCommand(importCmd)
}

// ImportResponseCLI is the output of the import command.
type ImportResponseCLI struct {
	File       string      `json:"file"`
	Report     *etl.Report `json:"report"`
	DurationMs int64       `json:"durationMs"`
}

func runImport(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(importFormat)

	a := mustGetApp(mustGetRoot(), logger)
	ctx := newContext()

	importer := etl.NewImporter(a.Store, a.Index, logger)
	report, err := importer.ImportFile(ctx, args[0], importDryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing %s: %v\n", args[0], err)
		os.Exit(1)
	}

	resp := &ImportResponseCLI{
		File:       args[0],
		Report:     report,
		DurationMs: time.Since(start).Milliseconds(),
	}

	output, err := FormatResponse(resp, OutputFormat(importFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}
