// Package parser reads relnorm's two inputs: a CREATE TABLE statement that
// defines the attribute universe and a list of functional dependencies.
//
// # Basic Usage
//
// Parse a table definition:
//
//	table, err := parser.ParseDDLFile("schema.sql")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	u := schema.NewUniverse(table.Attributes)
//
// Parse dependencies, one per line:
//
//	deps, err := parser.ParseDependencyString("order_id->customer_id\norder_id,line_no->sku")
//
// # DDL Parsing
//
// Valid PostgreSQL is parsed with the PostgreSQL parser (pg_query_go), which
// handles quoted identifiers, CONSTRAINT clauses and parenthesized types.
// Text the PostgreSQL parser rejects, such as columns without types, falls
// back to a lenient tokenizer that splits the column list on top-level commas
// and takes the first word of each entry as the column name.
package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/pthm/relnorm/pkg/schema"
)

// Table is a parsed CREATE TABLE statement.
type Table struct {
	Name    string
	Columns []Column

	// Attributes holds every column name.
	Attributes schema.AttributeSet

	// PrimaryKey is the declared primary key, empty when none was declared.
	PrimaryKey schema.AttributeSet

	// Lenient is true when the PostgreSQL parser rejected the text and the
	// tokenizer fallback produced this table.
	Lenient bool
}

// Column is one column definition, in declaration order.
type Column struct {
	Name schema.Attribute
	Type string
}

// Option configures parsing.
type Option func(*options)

type options struct {
	upperCase  bool
	strict     bool
	terminator string
}

func buildOptions(opts []Option) options {
	o := options{terminator: DefaultTerminator}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithUpperCase folds every attribute name to upper case, making analysis
// case-insensitive.
func WithUpperCase() Option {
	return func(o *options) { o.upperCase = true }
}

// WithStrict disables the lenient DDL fallback: text the PostgreSQL parser
// rejects is an error.
func WithStrict() Option {
	return func(o *options) { o.strict = true }
}

// WithTerminator sets the line that ends dependency input. An empty string
// reads to EOF.
func WithTerminator(line string) Option {
	return func(o *options) { o.terminator = line }
}

func (o options) attribute(name string) schema.Attribute {
	if o.upperCase {
		name = strings.ToUpper(name)
	}
	return schema.Attribute(name)
}

// ParseDDLFile reads a file and parses its CREATE TABLE statement.
func ParseDDLFile(path string, opts ...Option) (*Table, error) {
	content, err := os.ReadFile(path) //nolint:gosec // path is from trusted source
	if err != nil {
		return nil, fmt.Errorf("reading DDL file: %w", err)
	}
	return ParseDDL(string(content), opts...)
}

// ParseDDL parses the first CREATE TABLE statement in text.
func ParseDDL(text string, opts ...Option) (*Table, error) {
	o := buildOptions(opts)

	table, pgErr := parseDDLPostgres(text, o)
	if pgErr == nil {
		return table, nil
	}
	if o.strict {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDDL, pgErr)
	}

	table, err := parseDDLLenient(text, o)
	if err != nil {
		return nil, err
	}
	table.Lenient = true
	return table, nil
}

// newTable assembles a Table from columns in declaration order.
func newTable(name string, columns []Column, pk []schema.Attribute) (*Table, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: no columns in table %q", ErrInvalidDDL, name)
	}
	attrs := make([]schema.Attribute, len(columns))
	for i, c := range columns {
		attrs[i] = c.Name
	}
	return &Table{
		Name:       name,
		Columns:    columns,
		Attributes: schema.NewAttributeSet(attrs...),
		PrimaryKey: schema.NewAttributeSet(pk...),
	}, nil
}
