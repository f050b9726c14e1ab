// Package cli provides the command-line interface for the option-chain engine.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"optionchain-trader/internal/config"
	apperrors "optionchain-trader/internal/errors"
	"optionchain-trader/internal/logging"
	"optionchain-trader/internal/store"
	"optionchain-trader/internal/trading"
	"optionchain-trader/pkg/utils"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-08-31"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.DataStore
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	dbPath := config.DefaultConfigDir() + "/engine.db"
	dataStore, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, ledger commands unavailable")
	} else {
		app.Store = dataStore
		logger.Debug().Str("path", dbPath).Msg("SQLite store initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "octrader",
		Short: "Option-chain analytics and paper trading CLI",
		Long: `octrader analyzes NSE-style option-chain snapshots and runs a paper
trading loop over them.

It computes OI metrics (PCR, max pain, support/resistance, crossovers),
derives trade signals, and keeps a durable paper ledger with intraday OI
history.

Use 'octrader help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/optionchain-trader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addAnalysisCommands(rootCmd, app)
	addEngineCommands(rootCmd, app)
	addLedgerCommands(rootCmd, app)
	addSeriesCommands(rootCmd, app)

	return rootCmd
}

// requireStore returns the data store or a typed error when the database
// could not be opened at startup.
func (a *App) requireStore() (store.DataStore, error) {
	if a.Store == nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabaseError, "store unavailable")
	}
	return a.Store, nil
}

// newLedger builds the paper ledger for the configured account.
func (a *App) newLedger() (*trading.Ledger, error) {
	s, err := a.requireStore()
	if err != nil {
		return nil, err
	}
	return trading.NewLedger(trading.LedgerConfig{
		Store:   s,
		Trading: a.Config.Trading,
	}), nil
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("octrader v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Engine Configuration")
	output.Printf("  PCR Rule:          %s\n", cfg.Engine.PCRRule)
	output.Printf("  Support/Res K:     %d\n", cfg.Engine.SupportResistanceK)
	output.Printf("  Snapshot Min Gap:  %ds\n", cfg.Engine.SnapshotMinGapSeconds)
	output.Printf("  Crossover Thresh:  %.2f\n", cfg.Engine.CrossoverThresholdRatio)
	output.Printf("  Poll Interval:     %ds\n", cfg.Engine.PollIntervalSeconds)
	output.Printf("  Symbols:           %v\n", cfg.Engine.Symbols)
	output.Println()

	output.Bold("Trading Configuration")
	output.Printf("  Account:           %s\n", cfg.Trading.Account)
	output.Printf("  Starting Balance:  %s\n", FormatIndianCurrency(cfg.Trading.StartingBalance))
	output.Printf("  Allow Short:       %v\n", cfg.Trading.AllowShort)
	output.Println()

	output.Printf("Market: %s\n", output.MarketStatus(string(utils.GetMarketStatus())))
	return nil
}
