package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ikb/internal/export"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all incidents to a compressed archive",
	Long: `Write every stored incident to a zstd-compressed JSON-lines archive.
Archives can be re-imported on another installation with 'ikb restore'.`,
	Run: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "human", "Output format (json, human)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "incidents.jsonl.zst", "Archive file to write")
	rootCmd.AddCommand(exportCmd)
}

// ExportResponseCLI is the output of the export command.
type ExportResponseCLI struct {
	File       string `json:"file"`
	Records    int64  `json:"records"`
	DurationMs int64  `json:"durationMs"`
}

func runExport(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(exportFormat)

	a := mustGetApp(mustGetRoot(), logger)
	ctx := newContext()

	exporter := export.NewExporter(a.Store, logger)
	n, err := exporter.WriteArchiveFile(ctx, exportOut)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing archive: %v\n", err)
		os.Exit(1)
	}

	resp := &ExportResponseCLI{
		File:       exportOut,
		Records:    n,
		DurationMs: time.Since(start).Milliseconds(),
	}

	output, err := FormatResponse(resp, OutputFormat(exportFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}
