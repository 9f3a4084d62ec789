package main

import (
	"github.com/spf13/cobra"

	"ikb/internal/version"
)

var (
	// logLevelFlag is the CLI --log-level flag value
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "ikb",
	Short: "IKB - Incident Knowledge Base",
	Long: `IKB (Incident Knowledge Base) answers Korean natural-language questions about
incident history. Statistical questions are translated into aggregate queries over the
incident store; open questions are answered from documents selected by a tiered
relevance filter.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("IKB version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Log level: debug, info, warn, or error (default: from config)")
}
