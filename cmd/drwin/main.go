// Package main provides the drwin CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/richinex/drwin/cli"
	"github.com/richinex/drwin/config"
	"github.com/richinex/drwin/llm"
)

var (
	// Global flags
	provider    string
	dbPath      string
	metricsAddr string
	language    string
	verbose     bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "drwin",
		Short: "Dr. Win, a grant-writing assistant backed by specialist tools",
		Long: `Dr. Win answers grant-writing questions and delegates to four specialists:

- Scout (Discovery): searches and compares funding opportunities
- Auditor (Validation): eligibility checks and evaluator simulation
- Architect (Creation): project concepts, metadata, section drafts and reviews
- Tailor (Adaptation): adapts proposals to new calls and plans resubmissions`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "LLM provider ("+strings.Join(config.SupportedProviders(), ", ")+")")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database for conversations (default $DRWIN_DB, in-memory if unset)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	rootCmd.PersistentFlags().StringVar(&language, "lang", "", "Response language: en or es (default $AGENT_LANGUAGE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show turn metadata")

	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(toolsCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(exportCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func options() cli.Options {
	return cli.Options{
		Provider:    provider,
		DBPath:      dbPath,
		MetricsAddr: metricsAddr,
		Language:    language,
		Verbose:     verbose,
	}
}

// withApp builds the application, runs fn and releases it. Offline commands
// never call the model, so a missing API key is not an error for them.
func withApp(offline bool, fn func(app *cli.App) error) error {
	opts := options()
	settings, err := config.New(opts.Provider)
	if err != nil {
		return err
	}
	logger, closeLog := config.SetupLogger(settings.Log.File, config.ParseLevel(settings.Log.Level))
	defer closeLog()

	var gateway llm.Gateway
	client, err := cli.NewGateway(settings)
	switch {
	case err == nil:
		gateway = client
	case !offline:
		return err
	}

	app, err := cli.NewApp(settings, gateway, opts, logger)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}

func chatCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session.

Commands inside the session:
  /attach <path>  attach a file to the next message
  /new            start a new conversation
  /exit           quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(false, func(app *cli.App) error {
				return cli.Chat(cmd.Context(), app, os.Stdin, os.Stdout, sessionID, options())
			})
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID to resume")

	return cmd
}

func askCmd() *cobra.Command {
	var files []string

	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Run a single turn",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(false, func(app *cli.App) error {
				return cli.Ask(cmd.Context(), app, os.Stdout, args[0], files, options())
			})
		},
	}

	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "File to attach (repeatable)")

	return cmd
}

func toolsCmd() *cobra.Command {
	var verboseTools bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List available tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(true, func(app *cli.App) error {
				cli.ListTools(os.Stdout, app.Registry, verboseTools)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&verboseTools, "verbose", "V", false, "Show tool parameters")

	return cmd
}

func historyCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored sessions, or print one with --session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(true, func(app *cli.App) error {
				if sessionID == "" {
					return cli.ListSessions(cmd.Context(), os.Stdout, app.Store)
				}
				return cli.History(cmd.Context(), os.Stdout, app.Store, sessionID)
			})
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID to print")

	return cmd
}

func exportCmd() *cobra.Command {
	var sessionID string
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a stored session as markdown or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(true, func(app *cli.App) error {
				return cli.Export(cmd.Context(), os.Stdout, app.Store, sessionID, format)
			})
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID to export")
	cmd.Flags().StringVar(&format, "format", "md", "Export format: md or json")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}
