package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ikb/internal/nlquery"
	"ikb/internal/stats"
)

var (
	statsFormat  string
	statsShowSQL bool
)

var statsCmd = &cobra.Command{
	Use:   "stats <question>",
	Short: "Run a statistical question without answer synthesis",
	Long: `Extract filter and group-by conditions from a Korean question and run the
resulting aggregate query over the incident store. Useful for inspecting how a
question is interpreted.`,
	Args: cobra.MinimumNArgs(1),
	Run:  runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsFormat, "format", "human", "Output format (json, human)")
	statsCmd.Flags().BoolVar(&statsShowSQL, "show-sql", false, "Include the generated SQL in human output")
	rootCmd.AddCommand(statsCmd)
}

// StatsResponseCLI is the output of the stats command.
type StatsResponseCLI struct {
	Question   string             `json:"question"`
	Condition  *nlquery.Condition `json:"condition"`
	Result     *stats.Result      `json:"result"`
	DurationMs int64              `json:"durationMs"`
}

func runStats(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(statsFormat)

	question := strings.Join(args, " ")
	a := mustGetApp(mustGetRoot(), logger)
	ctx := newContext()

	cond := nlquery.NewExtractor().Extract(question)
	result, err := a.Store.Aggregate(ctx, &cond)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running aggregate query: %v\n", err)
		os.Exit(1)
	}

	resp := &StatsResponseCLI{
		Question:   question,
		Condition:  &cond,
		Result:     result,
		DurationMs: time.Since(start).Milliseconds(),
	}

	output, err := FormatResponse(resp, OutputFormat(statsFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}
