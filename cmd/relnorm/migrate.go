package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm/relnorm/internal/cli"
	"github.com/pthm/relnorm/pkg/migrator"
)

var (
	migrateDryRun bool
	migrateForce  bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the decomposed tables in PostgreSQL",
	Long: `Analyze the inputs and create one table per decomposed relation. Every run
is recorded in relnorm_migrations; a run whose statements match the last one
is skipped.`,
	Example: `  # Apply the decomposition
  relnorm migrate --ddl schema.sql --fds deps.txt --db postgres://localhost/mydb

  # Preview migration without applying
  relnorm migrate --ddl schema.sql --fds deps.txt --dry-run

  # Force re-apply even if unchanged
  relnorm migrate --ddl schema.sql --fds deps.txt --db postgres://localhost/mydb --force --if-not-exists`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun := resolveBool(migrateDryRun, cfg.Migrate.DryRun)
		force := resolveBool(migrateForce, cfg.Migrate.Force)

		_, res, err := runAnalysis(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		opts := migrator.MigrateOptions{Force: force, Logger: logger}

		if dryRun {
			opts.DryRun = cmd.OutOrStdout()
			if !quiet {
				fmt.Fprintln(cmd.ErrOrStderr(), "-- Dry-run mode: SQL will be output but not applied")
				fmt.Fprintln(cmd.ErrOrStderr(), "")
			}
			// A dry run never touches the database.
			if _, err := migrator.MigrateRelations(ctx, nil, res.Relations, opts, cfg.RenderOptions()...); err != nil {
				return cli.GeneralError("rendering migration", err)
			}
			return nil
		}

		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Applying %d tables...\n", len(res.Relations))
		}
		result, err := migrator.MigrateRelations(ctx, db, res.Relations, opts, cfg.RenderOptions()...)
		if err != nil {
			return cli.GeneralError("migration failed", err)
		}

		if !quiet {
			if result.Skipped {
				fmt.Fprintln(cmd.OutOrStdout(), "Decomposition unchanged, migration skipped.")
				fmt.Fprintln(cmd.OutOrStdout(), "Use --force to re-apply.")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Decomposition applied (run %s).\n", result.RunID)
			}
		}
		return nil
	},
}

func init() {
	addInputFlags(migrateCmd)
	addRenderFlags(migrateCmd)
	addDatabaseFlags(migrateCmd)
	f := migrateCmd.Flags()
	f.BoolVar(&migrateDryRun, "dry-run", false, "output migration SQL without applying")
	f.BoolVar(&migrateForce, "force", false, "force migration even if unchanged")
}
