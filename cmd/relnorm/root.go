package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pthm/relnorm/internal/cli"
)

var (
	// Global state set during PersistentPreRunE
	cfg        *cli.Config
	configPath string
	logger     = slog.New(slog.DiscardHandler)

	// Persistent flags
	cfgFile string
	verbose int
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "relnorm",
	Short: "Functional dependency analysis and 3NF decomposition",
	Long: `relnorm - functional dependency analysis and 3NF decomposition

relnorm reads a table definition and its functional dependencies, finds every
minimal candidate key and splits the table into third normal form relations,
ready to be created in PostgreSQL.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for help/completion/version commands
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, configPath, err = cli.LoadConfig(cfgFile)
		if err != nil {
			return cli.ConfigError("loading configuration", err)
		}
		overlayFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return cli.ConfigError("invalid flags", err)
		}

		level, err := logLevel()
		if err != nil {
			return cli.ConfigError("log level", err)
		}
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		return nil
	},
	SilenceUsage:  true, // Don't show usage on errors
	SilenceErrors: true, // We handle errors ourselves
}

// Command group IDs
const (
	groupAnalysis = "analysis"
	groupDatabase = "database"
	groupUtility  = "utility"
)

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: auto-discover relnorm.yaml)")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupAnalysis, Title: "Analysis:"},
		&cobra.Group{ID: groupDatabase, Title: "Database:"},
		&cobra.Group{ID: groupUtility, Title: "Utility:"},
	)

	// Analysis commands
	for _, c := range []*cobra.Command{analyzeCmd, closureCmd, keysCmd, decomposeCmd, doctorCmd} {
		c.GroupID = groupAnalysis
		rootCmd.AddCommand(c)
	}

	// Database commands
	migrateCmd.GroupID = groupDatabase
	rootCmd.AddCommand(migrateCmd)

	// Utility commands
	configCmd.GroupID = groupUtility
	versionCmd.GroupID = groupUtility
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cli.ExitWithError(err)
	}
}

// logLevel maps -v counts onto slog levels; without -v the configured
// log_level applies.
func logLevel() (slog.Level, error) {
	switch {
	case verbose >= 2:
		return slog.LevelDebug, nil
	case verbose == 1:
		return slog.LevelInfo, nil
	case quiet:
		return slog.LevelError, nil
	default:
		return cli.ParseLogLevel(cfg.LogLevel)
	}
}

// resolveString returns the first non-empty string from the provided values.
// Used to implement precedence: flag > config > default.
func resolveString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolveBool returns true if any of the provided values is true.
// Used for boolean flags where any true value should win.
func resolveBool(values ...bool) bool {
	for _, v := range values {
		if v {
			return true
		}
	}
	return false
}
