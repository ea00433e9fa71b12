package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pthm/relnorm/internal/cli"
	"github.com/pthm/relnorm/pkg/analysis"
	"github.com/pthm/relnorm/pkg/ddl"
	"github.com/pthm/relnorm/pkg/parser"
	"github.com/pthm/relnorm/pkg/schema"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Find candidate keys and decompose into 3NF",
	Long: `Parse the table and dependencies, list the minimal candidate keys and print
the 3NF decomposition as CREATE TABLE statements.`,
	Example: `  # Analyze files
  relnorm analyze --ddl schema.sql --fds deps.txt

  # Pipe both sections through stdin, each ended by END
  printf 'CREATE TABLE R (A, B, C)\nEND\nA->B\nB->C\nEND\n' | relnorm analyze

  # Machine-readable output
  relnorm analyze --ddl schema.sql --fds deps.txt -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, res, err := runAnalysis(cmd)
		if err != nil {
			return err
		}

		report := analyzeReport{
			Table:      in.Table.Name,
			PrimaryKey: in.Table.PrimaryKey,
			Skipped:    in.Dependencies.Skipped,
			Result:     res,
			Statements: ddl.Statements(res.Relations, cfg.RenderOptions()...),
		}
		return render(cmd.OutOrStdout(), report, report.text)
	},
}

func init() {
	addInputFlags(analyzeCmd)
	addRenderFlags(analyzeCmd)
}

// runAnalysis loads the inputs and runs the full analysis.
func runAnalysis(cmd *cobra.Command) (*inputs, *analysis.Result, error) {
	in, err := loadInputs(cmd)
	if err != nil {
		return nil, nil, err
	}

	res, err := analysis.Analyze(cmd.Context(), in.Universe(), in.Dependencies.Dependencies, cfg.AnalysisOptions(logger)...)
	if err != nil {
		return nil, nil, analysisError(err)
	}
	return in, res, nil
}

// analysisError maps analysis errors onto exit codes.
func analysisError(err error) error {
	if analysis.IsUniverseTooLargeErr(err) {
		return cli.CapacityError("table too large for key search (raise analysis.max_attributes)", err)
	}
	return cli.GeneralError("analysis failed", err)
}

type analyzeReport struct {
	Table      string               `json:"table"`
	PrimaryKey schema.AttributeSet  `json:"primary_key,omitzero"`
	Skipped    []parser.SkippedLine `json:"skipped,omitempty"`
	*analysis.Result
	Statements []string `json:"statements"`
}

func (r analyzeReport) text(w io.Writer) error {
	if !quiet {
		fmt.Fprintln(w, heading("Parsed Attributes"))
		fmt.Fprintln(w, strings.Join(r.Universe.Strings(), " "))
		if !r.PrimaryKey.IsEmpty() {
			fmt.Fprintf(w, "Primary Key: %s\n", strings.Join(r.PrimaryKey.Strings(), " "))
		}
		writeProblems(w, r.Skipped, r.Validations)
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, heading("Candidate Keys"))
	writeKeys(w, r.CandidateKeys)
	fmt.Fprintln(w)

	fmt.Fprintln(w, heading("3NF Decomposition"))
	fmt.Fprintln(w, strings.Join(r.Statements, "\n\n"))
	return nil
}

// writeProblems lists skipped lines and rejected dependencies.
func writeProblems(w io.Writer, skipped []parser.SkippedLine, validations []analysis.Validation) {
	for _, s := range skipped {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("skipped line %d: %q (%s)", s.Line, s.Text, s.Reason)))
	}
	for _, v := range validations {
		if !v.IsAccepted() {
			fmt.Fprintln(w, warnStyle.Render(v.Message()))
		}
	}
}

func writeKeys(w io.Writer, keys []schema.AttributeSet) {
	for _, k := range keys {
		fmt.Fprintln(w, strings.Join(k.Strings(), " "))
	}
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the minimal candidate keys",
	Example: `  relnorm keys --ddl schema.sql --fds deps.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := loadInputs(cmd)
		if err != nil {
			return err
		}

		u := in.Universe()
		validations := analysis.ValidateDependencies(u, in.Dependencies.Dependencies)
		keys, err := analysis.FindCandidateKeys(cmd.Context(), u, analysis.AcceptedDependencies(validations), cfg.AnalysisOptions(logger)...)
		if err != nil {
			return analysisError(err)
		}

		out := struct {
			CandidateKeys []schema.AttributeSet `json:"candidate_keys"`
		}{keys}
		return render(cmd.OutOrStdout(), out, func(w io.Writer) error {
			if !quiet {
				writeProblems(w, in.Dependencies.Skipped, validations)
			}
			writeKeys(w, keys)
			return nil
		})
	},
}

var closureAttrs string

var closureCmd = &cobra.Command{
	Use:   "closure",
	Short: "Compute the closure of a set of attributes",
	Example: `  # Which attributes do order_id and line_no determine?
  relnorm closure --ddl schema.sql --fds deps.txt --attrs order_id,line_no`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(closureAttrs) == "" {
			return cli.ConfigError("--attrs is required", nil)
		}
		in, err := loadInputs(cmd)
		if err != nil {
			return err
		}

		u := in.Universe()
		fds := analysis.AcceptedDependencies(analysis.ValidateDependencies(u, in.Dependencies.Dependencies))

		list, err := parser.ParseDependencyString(closureAttrs+parser.Arrow, cfg.ParserOptions()...)
		if err != nil || len(list.Dependencies) != 1 {
			return cli.InputParseError("parsing --attrs", err)
		}
		attrs := list.Dependencies[0].LHS
		if unknown := u.Unknown(attrs); !unknown.IsEmpty() {
			return cli.InputParseError("parsing --attrs", fmt.Errorf("attributes %s are not in table %s", unknown, in.Table.Name))
		}

		closure := analysis.Closure(attrs, fds)
		out := struct {
			Attributes schema.AttributeSet `json:"attributes"`
			Closure    schema.AttributeSet `json:"closure"`
			Superkey   bool                `json:"superkey"`
		}{attrs, closure, u.Attributes().IsSubsetOf(closure)}

		return render(cmd.OutOrStdout(), out, func(w io.Writer) error {
			fmt.Fprintf(w, "%s+ = %s\n", attrs, closure)
			if out.Superkey && !quiet {
				fmt.Fprintln(w, "superkey: determines every attribute")
			}
			return nil
		})
	},
}

func init() {
	addInputFlags(keysCmd)
	addInputFlags(closureCmd)
	closureCmd.Flags().StringVar(&closureAttrs, "attrs", "", "comma-separated attributes")
}

var decomposeCmd = &cobra.Command{
	Use:   "decompose",
	Short: "Print the 3NF decomposition as CREATE TABLE statements",
	Example: `  relnorm decompose --ddl schema.sql --fds deps.txt > normalized.sql

  # Quoted, typed and prefixed tables
  relnorm decompose --ddl schema.sql --fds deps.txt --quote-identifiers --column-type TEXT --table-prefix orders_`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, res, err := runAnalysis(cmd)
		if err != nil {
			return err
		}

		opts := cfg.RenderOptions()
		out := struct {
			Relations  []analysis.Relation `json:"relations"`
			TableNames []string            `json:"table_names"`
			Statements []string            `json:"statements"`
		}{res.Relations, ddl.TableNames(res.Relations, opts...), ddl.Statements(res.Relations, opts...)}

		return render(cmd.OutOrStdout(), out, func(w io.Writer) error {
			return ddl.Render(w, res.Relations, opts...)
		})
	},
}

func init() {
	addInputFlags(decomposeCmd)
	addRenderFlags(decomposeCmd)
}
