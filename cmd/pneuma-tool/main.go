package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/suPer8Hu/pneuma-api/internal/toolclient"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}

type options struct {
	baseURL string
	timeout time.Duration
	retries uint
}

func (o *options) client() *toolclient.Client {
	return toolclient.New(o.baseURL,
		toolclient.WithTimeout(o.timeout),
		toolclient.WithMaxRetries(o.retries),
	)
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "pneuma-tool",
		Short:         "Chat tools for the Pneuma table discovery API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	pf := root.PersistentFlags()
	pf.StringVar(&opts.baseURL, "api", envOr("PNEUMA_API_URL", toolclient.DefaultBaseURL), "API base URL")
	pf.DurationVar(&opts.timeout, "timeout", toolclient.DefaultTimeout, "per-request timeout")
	pf.UintVar(&opts.retries, "retries", toolclient.DefaultMaxRetries, "attempts per call")

	var (
		k         int
		sessionID string
	)
	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search for tables matching a natural language query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := opts.client().SearchTables(cmd.Context(), args[0], k, sessionID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), toolclient.FormatSearchResults(raw, args[0]))
			return nil
		},
	}
	search.Flags().IntVarP(&k, "limit", "k", 5, "number of tables to return (1-20)")
	search.Flags().StringVar(&sessionID, "session", "", "session id for follow-up queries")

	var includeSample bool
	table := &cobra.Command{
		Use:   "table <table_id>",
		Short: "Show details for one table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := opts.client().TableDetails(cmd.Context(), args[0], includeSample)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), toolclient.FormatTableDetails(raw))
			return nil
		},
	}
	table.Flags().BoolVar(&includeSample, "sample", true, "include sample rows")

	history := &cobra.Command{
		Use:   "history <session_id>",
		Short: "List the queries issued in a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := opts.client().SessionHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), toolclient.FormatHistory(raw))
			return nil
		},
	}

	indexes := &cobra.Command{
		Use:   "indexes",
		Short: "List searchable indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := opts.client().Indexes(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), toolclient.FormatIndexes(raw))
			return nil
		},
	}

	suggest := &cobra.Command{
		Use:   "suggest [context]",
		Short: "Print example queries",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			hint := ""
			if len(args) == 1 {
				hint = args[0]
			}
			fmt.Fprint(cmd.OutOrStdout(), toolclient.QuerySuggestions(hint))
		},
	}

	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.ServeStdio(toolclient.NewMCPServer(opts.client(), version))
		},
	}

	root.AddCommand(search, table, history, indexes, suggest, mcpCmd)
	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
