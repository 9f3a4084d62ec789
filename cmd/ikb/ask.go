package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ikb/internal/answer"
	"ikb/internal/incident"
	"ikb/internal/intent"
	"ikb/internal/logging"
	"ikb/internal/nlquery"
	"ikb/internal/retrieval"
	"ikb/internal/stats"
)

var (
	askFormat   string
	askIntent   string
	askNoAnswer bool
	askLimit    int
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about incident history",
	Long: `Classify a Korean natural-language question and answer it. Statistical
questions run an aggregate query over the incident store; other questions retrieve
relevant incident documents and optionally synthesize an answer from them.`,
	Args: cobra.MinimumNArgs(1),
	Run:  runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askFormat, "format", "human", "Output format (json, human)")
	askCmd.Flags().StringVar(&askIntent, "intent", "",
		"Force the question intent (statistics, inquiry, repair, cause, similar, default)")
	askCmd.Flags().BoolVar(&askNoAnswer, "no-answer", false, "Skip answer synthesis, show raw results only")
	askCmd.Flags().IntVar(&askLimit, "limit", 20, "Maximum detail rows for inquiry questions")
	rootCmd.AddCommand(askCmd)
}

// AskResponseCLI is the output of the ask command. Exactly one of
// Statistics, Records, or Documents is populated, depending on intent.
type AskResponseCLI struct {
	Question   string                     `json:"question"`
	Intent     string                     `json:"intent"`
	Condition  *nlquery.Condition         `json:"condition,omitempty"`
	Statistics *stats.Result              `json:"statistics,omitempty"`
	Records    []incident.Record          `json:"records,omitempty"`
	Documents  []retrieval.ScoredDocument `json:"documents,omitempty"`
	Answer     string                     `json:"answer,omitempty"`
	DurationMs int64                      `json:"durationMs"`
}

func runAsk(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(askFormat)

	question := strings.Join(args, " ")
	a := mustGetApp(mustGetRoot(), logger)
	ctx := newContext()

	it, err := resolveIntent(question)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	resp := &AskResponseCLI{Question: question, Intent: string(it)}

	switch it {
	case intent.Statistics:
		cond := nlquery.NewExtractor().Extract(question)
		result, err := a.Store.Aggregate(ctx, &cond)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running aggregate query: %v\n", err)
			os.Exit(1)
		}
		resp.Condition = &cond
		resp.Statistics = result
		resp.Answer = maybeAnswer(a, logger, func(s *answer.Synthesizer) (string, error) {
			return s.FromStatistics(ctx, question, &cond, result)
		})

	case intent.Inquiry:
		cond := nlquery.NewExtractor().Extract(question)
		records, err := a.Store.List(ctx, &cond, askLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing incidents: %v\n", err)
			os.Exit(1)
		}
		resp.Condition = &cond
		resp.Records = records

	default:
		docs, err := a.Funnel.Retrieve(ctx, question, it)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error retrieving documents: %v\n", err)
			os.Exit(1)
		}
		resp.Documents = docs
		if len(docs) > 0 {
			resp.Answer = maybeAnswer(a, logger, func(s *answer.Synthesizer) (string, error) {
				return s.FromDocuments(ctx, question, it, docs)
			})
		}
	}

	resp.DurationMs = time.Since(start).Milliseconds()

	output, err := FormatResponse(resp, OutputFormat(askFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

// resolveIntent applies the --intent override or classifies the question.
func resolveIntent(question string) (intent.Intent, error) {
	if askIntent != "" {
		return intent.Parse(askIntent)
	}
	return intent.Classify(question), nil
}

// maybeAnswer synthesizes an answer when enabled and configured; a
// missing API key degrades to raw results with a warning, not an error.
func maybeAnswer(a *app, logger *logging.Logger, fn func(*answer.Synthesizer) (string, error)) string {
	if askNoAnswer || !a.Config.Answer.Enabled {
		return ""
	}
	synth, err := answer.NewSynthesizer(a.Config.Answer)
	if err != nil {
		logger.Warn("Answer synthesis unavailable", map[string]interface{}{
			"error": err.Error(),
		})
		return ""
	}
	text, err := fn(synth)
	if err != nil {
		logger.Warn("Answer synthesis failed", map[string]interface{}{
			"error": err.Error(),
		})
		return ""
	}
	return text
}
