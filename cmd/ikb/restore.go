package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ikb/internal/export"
)

var restoreFormat string

var restoreCmd = &cobra.Command{
	Use:   "restore <archive>",
	Short: "Restore incidents from an exported archive",
	Long: `Load incidents from an archive written by 'ikb export' into the store and
rebuild the search index. Records that share an incident id with existing rows
are replaced.`,
	Args: cobra.ExactArgs(1),
	Run:  runRestore,
}

func init() {
	restoreCmd.Flags().StringVar(&restoreFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(restoreCmd)
}

// RestoreResponseCLI is the output of the restore command.
type RestoreResponseCLI struct {
	File       string `json:"file"`
	Records    int    `json:"records"`
	BatchID    string `json:"batchId"`
	DurationMs int64  `json:"durationMs"`
}

func runRestore(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(restoreFormat)

	a := mustGetApp(mustGetRoot(), logger)
	ctx := newContext()

	_, records, err := export.ReadArchiveFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading archive: %v\n", err)
		os.Exit(1)
	}

	batchID := uuid.NewString()
	importedAt := time.Now().UTC().Format(time.RFC3339)
	if err := a.Store.UpsertBatch(ctx, records, batchID, importedAt); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing records: %v\n", err)
		os.Exit(1)
	}
	if err := a.Index.Rebuild(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error rebuilding search index: %v\n", err)
		os.Exit(1)
	}

	resp := &RestoreResponseCLI{
		File:       args[0],
		Records:    len(records),
		BatchID:    batchID,
		DurationMs: time.Since(start).Milliseconds(),
	}

	output, err := FormatResponse(resp, OutputFormat(restoreFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}
