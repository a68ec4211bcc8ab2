package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/seminar-cal/internal/config"
	"github.com/pfrederiksen/seminar-cal/internal/logger"
	"github.com/pfrederiksen/seminar-cal/internal/pipeline"
	"github.com/pfrederiksen/seminar-cal/internal/storage"
)

const (
	ExitSuccess   = 0
	ExitError     = 1
	ExitNewEvents = 2
)

// exitCodeError carries a non-error exit status out of a command.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath  string
	dataDir     string
	databaseURL string
	logLevel    string
	verbose     bool
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:   "seminar-cal",
		Short: "Aggregate academic seminar listings into one deduplicated calendar",
		Long: `A CLI tool that scrapes seminar and event listings from many sites,
extracts and normalizes event records, removes duplicates, labels them by
field and keeps them in a local or Postgres-backed store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "seminar-cal.yaml", "Path to the YAML config file")
	pf.StringVar(&g.dataDir, "data-dir", "", "Data directory for the JSON store (overrides config)")
	pf.StringVar(&g.databaseURL, "database-url", "", "Postgres DSN; selects the Postgres store (overrides config)")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
	pf.BoolVar(&g.verbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(
		newRunCmd(g),
		newWatchCmd(g),
		newExportCmd(g),
		newListCmd(g),
		newCategorizeCmd(g),
		newBackfillCmd(g),
		newInitCmd(g),
	)
	return cmd
}

// load reads the config, applies flag overrides and installs the logger.
func (g *globalFlags) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if g.dataDir != "" {
		cfg.DataDir = g.dataDir
	}
	if g.databaseURL != "" {
		cfg.DatabaseURL = g.databaseURL
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if g.verbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))
	return cfg, nil
}

func openStore(cfg *config.Config) (storage.Store, error) {
	if cfg.DatabaseURL != "" {
		store, err := storage.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("initializing postgres store: %w", err)
		}
		return store, nil
	}
	store, err := storage.NewFileStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	logger.Debug("Opened file store", logger.Fields{"path": store.Path()})
	return store, nil
}

func newRunCmd(g *globalFlags) *cobra.Command {
	var (
		format  string
		exitNew bool
		noEnr   bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scrape every configured source once",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			if noEnr {
				cfg.Enrich = false
			}
			if len(cfg.Sources) == 0 {
				return fmt.Errorf("no sources configured in %s", g.configPath)
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			p, err := pipeline.NewFromConfig(store, cfg)
			if err != nil {
				return err
			}
			stats, err := p.Run(cmd.Context(), cfg.Sources)
			if err != nil {
				return fmt.Errorf("running pipeline: %w", err)
			}

			if err := WriteStats(cmd.OutOrStdout(), stats, f); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			if exitNew && stats.Inserted > 0 {
				return &exitCodeError{code: ExitNewEvents}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&exitNew, "exit-code", false, "Exit with status 2 when new events were stored")
	cmd.Flags().BoolVar(&noEnr, "no-enrich", false, "Skip detail-page enrichment")
	return cmd
}

func newBackfillCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "backfill",
		Short: "Enrich stored upcoming events that still have generic fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			p, err := pipeline.NewFromConfig(store, cfg)
			if err != nil {
				return err
			}
			n, err := p.Backfill(cmd.Context())
			if err != nil {
				return fmt.Errorf("backfilling: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d events.\n", n)
			return nil
		},
	}
}

func parseFormat(s string) (OutputFormat, error) {
	f := OutputFormat(strings.ToLower(s))
	if f != FormatText && f != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return f, nil
}

// Execute runs the CLI
func Execute() {
	ctx := context.Background()
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		var exit *exitCodeError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
	os.Exit(ExitSuccess)
}
