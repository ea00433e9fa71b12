// Package doctor checks a table definition and its functional dependencies
// for problems before they are decomposed or migrated.
//
// The doctor parses nothing itself: it takes the parsed inputs, runs one
// analysis pass and reports what it finds by category.
//
// Example usage:
//
//	d := doctor.New(doctor.Input{Table: table, Dependencies: deps})
//	report, err := d.Run(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	report.Print(os.Stdout, true) // verbose=true
package doctor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pthm/relnorm/pkg/analysis"
	"github.com/pthm/relnorm/pkg/ddl"
	"github.com/pthm/relnorm/pkg/migrator"
	"github.com/pthm/relnorm/pkg/parser"
	"github.com/pthm/relnorm/pkg/schema"
)

// Check categories, in report order.
const (
	CategoryInput         = "Input"
	CategoryDependencies  = "Dependencies"
	CategoryKeys          = "Keys"
	CategoryDecomposition = "Decomposition"
	CategoryDatabase      = "Database"
)

// Status represents the result of a health check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates an issue that prevents a correct decomposition.
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns a status indicator symbol for terminal output.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "⚠"
	case StatusFail:
		return "✗"
	default:
		return "?"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CheckResult represents the outcome of a single check.
type CheckResult struct {
	// Category groups related checks (e.g., "Input", "Keys").
	Category string `json:"category"`

	// Name is a short identifier for the check.
	Name string `json:"name"`

	Status  Status `json:"status"`
	Message string `json:"message"`

	// Details provides additional information for verbose output.
	Details string `json:"details,omitempty"`

	// FixHint suggests how to resolve issues.
	FixHint string `json:"fix_hint,omitempty"`
}

// Report contains all check results.
type Report struct {
	Checks []CheckResult `json:"checks"`

	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

// AddCheck adds a check result and updates summary counts.
func (r *Report) AddCheck(check CheckResult) {
	r.Checks = append(r.Checks, check)
	switch check.Status {
	case StatusPass:
		r.Passed++
	case StatusWarn:
		r.Warnings++
	case StatusFail:
		r.Errors++
	}
}

// Heading renders a category heading. Replaced by the CLI to add styling.
var Heading = func(category string) string { return category }

// Print writes the report to the given writer.
func (r *Report) Print(w io.Writer, verbose bool) {
	// Group checks by category
	categories := make(map[string][]CheckResult)
	var categoryOrder []string
	for _, check := range r.Checks {
		if _, exists := categories[check.Category]; !exists {
			categoryOrder = append(categoryOrder, check.Category)
		}
		categories[check.Category] = append(categories[check.Category], check)
	}

	for _, cat := range categoryOrder {
		_, _ = fmt.Fprintf(w, "\n%s\n", Heading(cat))
		for _, check := range categories[cat] {
			_, _ = fmt.Fprintf(w, "  %s %s\n", check.Status.Symbol(), check.Message)
			if verbose && check.Details != "" {
				for _, line := range strings.Split(check.Details, "\n") {
					_, _ = fmt.Fprintf(w, "      %s\n", line)
				}
			}
			if check.Status != StatusPass && check.FixHint != "" {
				_, _ = fmt.Fprintf(w, "      Fix: %s\n", check.FixHint)
			}
		}
	}

	_, _ = fmt.Fprintf(w, "\nSummary: %d passed, %d warnings, %d errors\n",
		r.Passed, r.Warnings, r.Errors)
}

// HasErrors returns true if any check failed.
func (r *Report) HasErrors() bool {
	return r.Errors > 0
}

// Input is what the doctor examines.
type Input struct {
	Table        *parser.Table
	Dependencies *parser.FDList

	// AnalysisOptions are passed to the analyzer (ceiling, workers, logger).
	AnalysisOptions []analysis.Option

	// DB enables the Database checks when set.
	DB migrator.Execer

	// RenderOptions must match the ones used to migrate, so the checksum
	// comparison sees the same statements.
	RenderOptions []ddl.Option
}

// Doctor runs checks over one Input.
type Doctor struct {
	in Input

	// Populated during Run
	universe *schema.Universe
	result   *analysis.Result
}

// New creates a new Doctor instance.
func New(in Input) *Doctor {
	return &Doctor{in: in}
}

// Run executes all checks and returns a report. Errors are returned only for
// failures outside the inputs, such as cancellation or database errors.
func (d *Doctor) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	if !d.checkInput(report) {
		return report, nil
	}
	if err := d.checkKeys(ctx, report); err != nil {
		return nil, fmt.Errorf("checking keys: %w", err)
	}
	d.checkDecomposition(report)
	if d.in.DB != nil {
		if err := d.checkDatabase(ctx, report); err != nil {
			return nil, fmt.Errorf("checking database: %w", err)
		}
	}

	return report, nil
}

// checkInput reports on the parsed table and dependency lines. It returns
// false when there is nothing to analyze.
func (d *Doctor) checkInput(report *Report) bool {
	t := d.in.Table
	if t == nil || t.Attributes.IsEmpty() {
		report.AddCheck(CheckResult{
			Category: CategoryInput,
			Name:     "attributes",
			Status:   StatusFail,
			Message:  "No attributes parsed",
			FixHint:  "Provide a CREATE TABLE statement with at least one column",
		})
		return false
	}

	check := CheckResult{
		Category: CategoryInput,
		Name:     "attributes",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Table %s has %d attributes", t.Name, t.Attributes.Len()),
		Details:  t.Attributes.String(),
	}
	if t.Lenient {
		check.Status = StatusWarn
		check.Message += " (lenient parse)"
		check.FixHint = "The DDL is not valid PostgreSQL; check that every column was picked up"
	}
	report.AddCheck(check)
	d.universe = schema.NewUniverse(t.Attributes)

	if t.PrimaryKey.IsEmpty() {
		report.AddCheck(CheckResult{
			Category: CategoryInput,
			Name:     "primary_key",
			Status:   StatusWarn,
			Message:  "No primary key declared",
			FixHint:  "Add a PRIMARY KEY so it can be compared with the candidate keys",
		})
	} else {
		report.AddCheck(CheckResult{
			Category: CategoryInput,
			Name:     "primary_key",
			Status:   StatusPass,
			Message:  fmt.Sprintf("Primary key declared: %s", t.PrimaryKey),
		})
	}

	deps := d.dependencies()
	if len(deps) == 0 {
		report.AddCheck(CheckResult{
			Category: CategoryInput,
			Name:     "dependencies",
			Status:   StatusWarn,
			Message:  "No functional dependencies given",
			Details:  "The only candidate key is the whole table",
		})
	} else {
		report.AddCheck(CheckResult{
			Category: CategoryInput,
			Name:     "dependencies",
			Status:   StatusPass,
			Message:  fmt.Sprintf("%d functional dependencies parsed", len(deps)),
		})
	}

	if d.in.Dependencies != nil && len(d.in.Dependencies.Skipped) > 0 {
		lines := make([]string, len(d.in.Dependencies.Skipped))
		for i, s := range d.in.Dependencies.Skipped {
			lines[i] = fmt.Sprintf("line %d: %q (%s)", s.Line, s.Text, s.Reason)
		}
		report.AddCheck(CheckResult{
			Category: CategoryInput,
			Name:     "skipped_lines",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("%d dependency lines skipped", len(lines)),
			Details:  strings.Join(lines, "\n"),
			FixHint:  "Write dependencies as LHS->RHS, e.g. A,B->C",
		})
	}

	return true
}

func (d *Doctor) dependencies() []schema.FunctionalDependency {
	if d.in.Dependencies == nil {
		return nil
	}
	return d.in.Dependencies.Dependencies
}

// checkKeys runs the analysis and compares the declared primary key with the
// candidate keys.
func (d *Doctor) checkKeys(ctx context.Context, report *Report) error {
	res, err := analysis.Analyze(ctx, d.universe, d.dependencies(), d.in.AnalysisOptions...)
	if err != nil && res == nil {
		var capErr *analysis.CapacityError
		if !errors.As(err, &capErr) {
			return err
		}
		d.checkValidations(report, analysis.ValidateDependencies(d.universe, d.dependencies()))
		report.AddCheck(CheckResult{
			Category: CategoryKeys,
			Name:     "capacity",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Table has %d attributes, above the limit of %d", capErr.Attributes, capErr.Limit),
			Details:  "Key search tests up to 2^n attribute subsets",
			FixHint:  "Split the table or raise analysis.max_attributes",
		})
		return nil
	}
	d.result = res
	d.checkValidations(report, res.Validations)

	report.AddCheck(CheckResult{
		Category: CategoryKeys,
		Name:     "capacity",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Key search covered all %d attributes", d.universe.Len()),
	})

	keyStrings := make([]string, len(res.CandidateKeys))
	for i, k := range res.CandidateKeys {
		keyStrings[i] = k.String()
	}
	report.AddCheck(CheckResult{
		Category: CategoryKeys,
		Name:     "candidate_keys",
		Status:   StatusPass,
		Message:  fmt.Sprintf("%d candidate keys found", len(res.CandidateKeys)),
		Details:  strings.Join(keyStrings, "\n"),
	})

	pk := d.in.Table.PrimaryKey
	if pk.IsEmpty() {
		return nil
	}
	if unknown := d.universe.Unknown(pk); !unknown.IsEmpty() {
		report.AddCheck(CheckResult{
			Category: CategoryKeys,
			Name:     "primary_key",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Primary key names columns that do not exist: %s", unknown),
			FixHint:  "Fix the PRIMARY KEY column list",
		})
		return nil
	}

	switch {
	case res.IsCandidateKey(pk):
		report.AddCheck(CheckResult{
			Category: CategoryKeys,
			Name:     "primary_key",
			Status:   StatusPass,
			Message:  fmt.Sprintf("Primary key %s is a candidate key", pk),
		})
	case res.Universe.IsSubsetOf(analysis.Closure(pk, res.Dependencies)):
		var within []string
		for _, k := range res.CandidateKeys {
			if k.IsProperSubsetOf(pk) {
				within = append(within, k.String())
			}
		}
		report.AddCheck(CheckResult{
			Category: CategoryKeys,
			Name:     "primary_key",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("Primary key %s is a superkey but not minimal", pk),
			Details:  "Smaller keys within it: " + strings.Join(within, ", "),
			FixHint:  "Use one of the smaller candidate keys as the primary key",
		})
	default:
		missing := res.Universe.Difference(analysis.Closure(pk, res.Dependencies))
		report.AddCheck(CheckResult{
			Category: CategoryKeys,
			Name:     "primary_key",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Primary key %s does not determine every attribute", pk),
			Details:  fmt.Sprintf("Not determined: %s", missing),
			FixHint:  "Add the missing dependencies or choose a candidate key",
		})
	}
	return nil
}

func (d *Doctor) checkValidations(report *Report, validations []analysis.Validation) {
	rejected := analysis.RejectedCount(validations)
	if rejected == 0 {
		report.AddCheck(CheckResult{
			Category: CategoryDependencies,
			Name:     "valid",
			Status:   StatusPass,
			Message:  fmt.Sprintf("All %d dependencies are valid", len(validations)),
		})
		return
	}

	for _, v := range validations {
		if v.IsAccepted() {
			continue
		}
		report.AddCheck(CheckResult{
			Category: CategoryDependencies,
			Name:     "rejected",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("Dependency %d (%s) ignored", v.Index+1, v.Dependency),
			Details:  v.Message(),
			FixHint:  fixHint(v.Reason),
		})
	}
}

func fixHint(r analysis.Reason) string {
	switch r {
	case analysis.ReasonEmptyLHS:
		return "Give the dependency at least one determining attribute"
	case analysis.ReasonEmptyRHS:
		return "Give the dependency at least one determined attribute"
	case analysis.ReasonUnknownAttribute:
		return "Check the attribute spelling against the table columns"
	default:
		return ""
	}
}

// checkDecomposition reports on the relations produced by the analysis.
func (d *Doctor) checkDecomposition(report *Report) {
	if d.result == nil {
		return
	}
	if len(d.result.Relations) == 0 {
		report.AddCheck(CheckResult{
			Category: CategoryDecomposition,
			Name:     "relations",
			Status:   StatusFail,
			Message:  "No relations produced",
		})
		return
	}

	report.AddCheck(CheckResult{
		Category: CategoryDecomposition,
		Name:     "relations",
		Status:   StatusPass,
		Message:  fmt.Sprintf("%d relations produced", len(d.result.Relations)),
	})

	for _, r := range d.result.Relations {
		if r.KeyRelation {
			report.AddCheck(CheckResult{
				Category: CategoryDecomposition,
				Name:     "key_relation",
				Status:   StatusPass,
				Message:  fmt.Sprintf("Key relation %s appended for %s", r.Name, r.Attributes),
			})
			break
		}
	}

	covered := analysis.RelationAttributes(d.result.Relations)
	if missing := d.result.Universe.Difference(covered); !missing.IsEmpty() {
		report.AddCheck(CheckResult{
			Category: CategoryDecomposition,
			Name:     "coverage",
			Status:   StatusWarn,
			Message:  "Some attributes appear in no relation",
			Details:  missing.String(),
		})
		return
	}
	report.AddCheck(CheckResult{
		Category: CategoryDecomposition,
		Name:     "coverage",
		Status:   StatusPass,
		Message:  "Every attribute appears in a relation",
	})
}

// checkDatabase compares the decomposition with the last migration.
func (d *Doctor) checkDatabase(ctx context.Context, report *Report) error {
	status, err := migrator.NewMigrator(d.in.DB).GetStatus(ctx)
	if err != nil {
		return err
	}

	if !status.TrackingExists {
		report.AddCheck(CheckResult{
			Category: CategoryDatabase,
			Name:     "tracking",
			Status:   StatusWarn,
			Message:  migrator.TrackingTable + " table does not exist",
			FixHint:  "Run 'relnorm migrate' to create it",
		})
		return nil
	}
	if status.Last == nil {
		report.AddCheck(CheckResult{
			Category: CategoryDatabase,
			Name:     "migrated",
			Status:   StatusWarn,
			Message:  "No migration records found",
			FixHint:  "Run 'relnorm migrate' to apply the decomposition",
		})
		return nil
	}

	report.AddCheck(CheckResult{
		Category: CategoryDatabase,
		Name:     "migrated",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Decomposition migrated (%d tables tracked)", len(status.Last.TableNames)),
	})

	if len(status.MissingTables) > 0 {
		report.AddCheck(CheckResult{
			Category: CategoryDatabase,
			Name:     "tables",
			Status:   StatusFail,
			Message:  fmt.Sprintf("%d migrated tables are missing", len(status.MissingTables)),
			Details:  strings.Join(status.MissingTables, "\n"),
			FixHint:  "Run 'relnorm migrate --force' to recreate them",
		})
	}

	if d.result == nil {
		return nil
	}
	current := migrator.ComputeChecksum(ddl.Statements(d.result.Relations, d.in.RenderOptions...))
	if current != status.Last.Checksum {
		report.AddCheck(CheckResult{
			Category: CategoryDatabase,
			Name:     "sync",
			Status:   StatusWarn,
			Message:  "Decomposition has changed since last migration",
			Details:  fmt.Sprintf("Current checksum: %s\nDB checksum:      %s", shortChecksum(current), shortChecksum(status.Last.Checksum)),
			FixHint:  "Run 'relnorm migrate' to apply changes",
		})
		return nil
	}
	report.AddCheck(CheckResult{
		Category: CategoryDatabase,
		Name:     "sync",
		Status:   StatusPass,
		Message:  "Decomposition is in sync with database",
	})
	return nil
}

// shortChecksum abbreviates a checksum for display. Records written by hand
// may hold shorter values, which are shown as they are.
func shortChecksum(sum string) string {
	const n = 16
	if len(sum) <= n {
		return sum
	}
	return sum[:n] + "..."
}
