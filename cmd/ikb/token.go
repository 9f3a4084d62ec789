package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ikb/internal/auth"
)

var (
	tokenFormat string
	tokenScope  string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API tokens",
	Long:  "Create, list, and revoke API tokens for the import/export surface",
}

var tokenCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new API token",
	Long: `Create a new API token. The raw token is printed once and cannot be
recovered afterwards; only a bcrypt hash is stored.`,
	Args: cobra.ExactArgs(1),
	Run:  runTokenCreate,
}

var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API tokens",
	Run:   runTokenList,
}

var tokenRevokeCmd = &cobra.Command{
	Use:   "revoke <key-id>",
	Short: "Revoke an API token",
	Args:  cobra.ExactArgs(1),
	Run:   runTokenRevoke,
}

func init() {
	tokenCmd.PersistentFlags().StringVar(&tokenFormat, "format", "human", "Output format (json, human)")
	tokenCreateCmd.Flags().StringVar(&tokenScope, "scope", "read", "Token scope (read, write, admin)")
	tokenCreateCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (0 means no expiry)")
	tokenCmd.AddCommand(tokenCreateCmd)
	tokenCmd.AddCommand(tokenListCmd)
	tokenCmd.AddCommand(tokenRevokeCmd)
	rootCmd.AddCommand(tokenCmd)
}

// TokenCreateResponseCLI is the output of token create. Token holds the
// raw secret and is only ever populated here.
type TokenCreateResponseCLI struct {
	Key   *auth.APIKey `json:"key"`
	Token string       `json:"token"`
}

// TokenListResponseCLI is the output of token list.
type TokenListResponseCLI struct {
	Keys []*auth.APIKey `json:"keys"`
}

func runTokenCreate(cmd *cobra.Command, args []string) {
	logger := newLogger(tokenFormat)
	a := mustGetApp(mustGetRoot(), logger)
	ctx := newContext()

	if !auth.ValidScope(tokenScope) {
		fmt.Fprintf(os.Stderr, "Error: unknown scope %q (expected read, write, or admin)\n", tokenScope)
		os.Exit(1)
	}

	store := auth.NewKeyStore(a.Store.Conn(), logger)
	if err := store.InitSchema(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	key, token, err := store.Issue(ctx, args[0], auth.Scope(tokenScope), tokenTTL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating token: %v\n", err)
		os.Exit(1)
	}

	resp := &TokenCreateResponseCLI{Key: key, Token: token}
	output, err := FormatResponse(resp, OutputFormat(tokenFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

func runTokenList(cmd *cobra.Command, args []string) {
	logger := newLogger(tokenFormat)
	a := mustGetApp(mustGetRoot(), logger)
	ctx := newContext()

	store := auth.NewKeyStore(a.Store.Conn(), logger)
	if err := store.InitSchema(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	keys, err := store.List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing tokens: %v\n", err)
		os.Exit(1)
	}

	resp := &TokenListResponseCLI{Keys: keys}
	output, err := FormatResponse(resp, OutputFormat(tokenFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

func runTokenRevoke(cmd *cobra.Command, args []string) {
	logger := newLogger(tokenFormat)
	a := mustGetApp(mustGetRoot(), logger)
	ctx := newContext()

	store := auth.NewKeyStore(a.Store.Conn(), logger)
	if err := store.InitSchema(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := store.Revoke(ctx, args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "Error revoking token: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Revoked %s\n", args[0])
}
