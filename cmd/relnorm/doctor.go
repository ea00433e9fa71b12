package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pthm/relnorm/internal/cli"
	"github.com/pthm/relnorm/internal/doctor"
)

var doctorDetails bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the inputs for problems",
	Long: `Check the table definition and dependencies: skipped lines, rejected
dependencies, the declared primary key against the candidate keys, and the
decomposition. With a database configured, also compare the decomposition
with the last migration.`,
	Example: `  # Check the inputs
  relnorm doctor --ddl schema.sql --fds deps.txt

  # Include database checks and details
  relnorm doctor --ddl schema.sql --fds deps.txt --db postgres://localhost/mydb --details`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := loadInputs(cmd)
		if err != nil {
			return err
		}

		input := doctor.Input{
			Table:           in.Table,
			Dependencies:    in.Dependencies,
			AnalysisOptions: cfg.AnalysisOptions(logger),
			RenderOptions:   cfg.RenderOptions(),
		}
		if cfg.Database.URL != "" || cfg.Database.Host != "" {
			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			input.DB = db
		}

		report, err := doctor.New(input).Run(cmd.Context())
		if err != nil {
			return cli.GeneralError("running doctor", err)
		}

		w := cmd.OutOrStdout()
		if err := render(w, report, func(w io.Writer) error {
			if !quiet {
				fmt.Fprintln(w, "relnorm doctor - Input Check")
			}
			report.Print(w, doctorDetails)
			return nil
		}); err != nil {
			return err
		}

		if report.HasErrors() {
			return cli.GeneralError("checks failed", nil)
		}
		return nil
	},
}

func init() {
	addInputFlags(doctorCmd)
	addRenderFlags(doctorCmd)
	addDatabaseFlags(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorDetails, "details", false, "show detailed output")
}
