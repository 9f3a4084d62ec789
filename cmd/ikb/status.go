package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ikb/internal/version"
)

var statusFormat string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show IKB system status",
	Long:  "Display the incident store location, record counts, and answer synthesis state",
	Run:   runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(statusCmd)
}

// StatusResponseCLI contains the system status for CLI output
type StatusResponseCLI struct {
	IkbVersion    string   `json:"ikbVersion"`
	StorePath     string   `json:"storePath"`
	Incidents     int64    `json:"incidents"`
	Years         []string `json:"years,omitempty"`
	AnswerEnabled bool     `json:"answerEnabled"`
	AnswerModel   string   `json:"answerModel,omitempty"`
	AnswerKeySet  bool     `json:"answerKeySet"`
	DurationMs    int64    `json:"durationMs"`
}

func runStatus(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(statusFormat)

	a := mustGetApp(mustGetRoot(), logger)
	ctx := newContext()

	count, err := a.Store.Count(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting status: %v\n", err)
		os.Exit(1)
	}
	years, err := a.Store.Years(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting status: %v\n", err)
		os.Exit(1)
	}

	resp := &StatusResponseCLI{
		IkbVersion:    version.Info(),
		StorePath:     a.Store.Path(),
		Incidents:     count,
		Years:         years,
		AnswerEnabled: a.Config.Answer.Enabled,
		AnswerModel:   a.Config.Answer.Model,
		AnswerKeySet:  os.Getenv("OPENAI_API_KEY") != "",
		DurationMs:    time.Since(start).Milliseconds(),
	}

	output, err := FormatResponse(resp, OutputFormat(statusFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}
