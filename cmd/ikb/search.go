package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ikb/internal/intent"
	"ikb/internal/retrieval"
)

var (
	searchFormat string
	searchIntent string
)

var searchCmd = &cobra.Command{
	Use:   "search <question>",
	Short: "Retrieve relevant incident documents",
	Long: `Run the retrieval funnel for a question and show the selected documents with
their match tier, quality tier, and scores. No answer is synthesized.`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchFormat, "format", "human", "Output format (json, human)")
	searchCmd.Flags().StringVar(&searchIntent, "intent", "",
		"Force the question intent (statistics, inquiry, repair, cause, similar, default)")
	rootCmd.AddCommand(searchCmd)
}

// SearchResponseCLI is the output of the search command.
type SearchResponseCLI struct {
	Query      string                     `json:"query"`
	Intent     string                     `json:"intent"`
	Documents  []retrieval.ScoredDocument `json:"documents"`
	DurationMs int64                      `json:"durationMs"`
}

func runSearch(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(searchFormat)

	query := strings.Join(args, " ")
	a := mustGetApp(mustGetRoot(), logger)
	ctx := newContext()

	it := intent.Classify(query)
	if searchIntent != "" {
		parsed, err := intent.Parse(searchIntent)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		it = parsed
	}

	docs, err := a.Funnel.Retrieve(ctx, query, it)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving documents: %v\n", err)
		os.Exit(1)
	}

	resp := &SearchResponseCLI{
		Query:      query,
		Intent:     string(it),
		Documents:  docs,
		DurationMs: time.Since(start).Milliseconds(),
	}

	output, err := FormatResponse(resp, OutputFormat(searchFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}
