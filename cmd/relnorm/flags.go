package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pthm/relnorm/internal/cli"
)

// Flags shared by several commands. Each command registers the groups it
// uses; overlayFlags copies the ones set on the command line over cfg.
var (
	flagDDL       string
	flagFDs       string
	flagUpperCase bool
	flagStrict    bool
	flagOutput    string

	flagMaxAttributes int
	flagWorkers       int

	flagColumnType  string
	flagTablePrefix string
	flagQuote       bool
	flagIfNotExists bool

	flagDB     string
	flagDriver string
)

func addInputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&flagDDL, "ddl", "", "file with the CREATE TABLE statement ('-' for stdin)")
	f.StringVar(&flagFDs, "fds", "", "file with one dependency per line ('-' for stdin)")
	f.BoolVar(&flagUpperCase, "uppercase", false, "fold attribute names to upper case")
	f.BoolVar(&flagStrict, "strict", false, "require valid PostgreSQL DDL")
	f.StringVarP(&flagOutput, "output", "o", "", "output format: text, yaml or json")
	f.IntVar(&flagMaxAttributes, "max-attributes", 0, "refuse key search above this many attributes")
	f.IntVar(&flagWorkers, "workers", 0, "parallel workers for key search (default: GOMAXPROCS)")
}

func addRenderFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&flagColumnType, "column-type", "", "column type for generated tables")
	f.StringVar(&flagTablePrefix, "table-prefix", "", "generated table name prefix")
	f.BoolVar(&flagQuote, "quote-identifiers", false, "quote table and column names")
	f.BoolVar(&flagIfNotExists, "if-not-exists", false, "emit CREATE TABLE IF NOT EXISTS")
}

func addDatabaseFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&flagDB, "db", "", "database URL")
	f.StringVar(&flagDriver, "driver", "", "database driver: postgres or pgx")
}

// overlayFlags applies flags set on cmd's command line to c.
//
// Changed is checked instead of using Visit: Visit also walks flags that
// were set on an earlier Execute of the same command tree.
func overlayFlags(cmd *cobra.Command, c *cli.Config) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		switch f.Name {
		case "ddl":
			c.Input.DDL = flagDDL
		case "fds":
			c.Input.FDs = flagFDs
		case "uppercase":
			c.Input.UpperCase = flagUpperCase
		case "strict":
			c.Input.Strict = flagStrict
		case "output":
			c.Output = flagOutput
		case "max-attributes":
			c.Analysis.MaxAttributes = flagMaxAttributes
		case "workers":
			c.Analysis.Workers = flagWorkers
		case "column-type":
			c.Render.ColumnType = flagColumnType
		case "table-prefix":
			c.Render.TablePrefix = flagTablePrefix
		case "quote-identifiers":
			c.Render.QuoteIdentifiers = flagQuote
		case "if-not-exists":
			c.Render.IfNotExists = flagIfNotExists
		case "db":
			c.Database.URL = flagDB
		case "driver":
			c.Database.Driver = flagDriver
		}
	})
}
