// Package ddl renders decomposed relations as CREATE TABLE statements.
//
// Each relation becomes one table whose columns share a single type and whose
// primary key spans every column:
//
//	CREATE TABLE R1 (
//	    A VARCHAR(255),
//	    B VARCHAR(255),
//	    PRIMARY KEY (A, B)
//	);
package ddl

import (
	"fmt"
	"io"
	"strings"

	"github.com/lib/pq"

	"github.com/pthm/relnorm/pkg/analysis"
	"github.com/pthm/relnorm/pkg/schema"
)

// DefaultColumnType is the type given to every column.
const DefaultColumnType = "VARCHAR(255)"

// Option configures rendering.
type Option func(*options)

type options struct {
	columnType  string
	tablePrefix string
	quote       bool
	ifNotExists bool
}

func buildOptions(opts []Option) options {
	o := options{columnType: DefaultColumnType}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithColumnType sets the column type. An empty type keeps the default.
func WithColumnType(t string) Option {
	return func(o *options) {
		if t != "" {
			o.columnType = t
		}
	}
}

// WithTablePrefix renames tables to prefix1, prefix2, ... in order.
// Without it the relation's own name is used.
func WithTablePrefix(prefix string) Option {
	return func(o *options) { o.tablePrefix = prefix }
}

// WithQuotedIdentifiers quotes table and column names, keeping their case
// and allowing names that are reserved words.
func WithQuotedIdentifiers() Option {
	return func(o *options) { o.quote = true }
}

// WithIfNotExists emits CREATE TABLE IF NOT EXISTS.
func WithIfNotExists() Option {
	return func(o *options) { o.ifNotExists = true }
}

func (o options) ident(name string) string {
	if o.quote {
		return pq.QuoteIdentifier(name)
	}
	return name
}

func (o options) tableName(i int, r analysis.Relation) string {
	if o.tablePrefix != "" || r.Name == "" {
		prefix := o.tablePrefix
		if prefix == "" {
			prefix = analysis.DefaultRelationPrefix
		}
		return fmt.Sprintf("%s%d", prefix, i+1)
	}
	return r.Name
}

// Statements returns one CREATE TABLE statement per relation, in order.
func Statements(relations []analysis.Relation, opts ...Option) []string {
	o := buildOptions(opts)
	stmts := make([]string, len(relations))
	for i, r := range relations {
		stmts[i] = o.statement(i, r)
	}
	return stmts
}

// TableNames returns the names Statements gives each relation.
func TableNames(relations []analysis.Relation, opts ...Option) []string {
	o := buildOptions(opts)
	names := make([]string, len(relations))
	for i, r := range relations {
		names[i] = o.tableName(i, r)
	}
	return names
}

// Render writes the statements for relations to w, separated by blank lines.
func Render(w io.Writer, relations []analysis.Relation, opts ...Option) error {
	for i, stmt := range Statements(relations, opts...) {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, stmt+"\n"); err != nil {
			return fmt.Errorf("writing %s: %w", relations[i].Name, err)
		}
	}
	return nil
}

func (o options) statement(i int, r analysis.Relation) string {
	var sb strings.Builder

	sb.WriteString("CREATE TABLE ")
	if o.ifNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(o.ident(o.tableName(i, r)))
	sb.WriteString(" (\n")

	for _, a := range r.Attributes.Attributes() {
		fmt.Fprintf(&sb, "    %s %s,\n", o.ident(string(a)), o.columnType)
	}

	key := r.PrimaryKey
	if key.IsEmpty() {
		key = r.Attributes
	}
	fmt.Fprintf(&sb, "    PRIMARY KEY (%s)\n);", o.columnList(key))
	return sb.String()
}

func (o options) columnList(s schema.AttributeSet) string {
	cols := make([]string, 0, s.Len())
	for _, a := range s.Attributes() {
		cols = append(cols, o.ident(string(a)))
	}
	return strings.Join(cols, ", ")
}
