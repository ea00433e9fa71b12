package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pthm/relnorm/pkg/schema"
)

// DefaultTerminator is the line that ends dependency input.
const DefaultTerminator = "END"

// Arrow separates the left and right sides of a dependency line.
const Arrow = "->"

// SkipReason says why an input line did not produce a dependency.
type SkipReason string

const (
	// SkipNoArrow marks a line without "->".
	SkipNoArrow SkipReason = "missing '->'"
)

// SkippedLine is an input line that was not a dependency.
type SkippedLine struct {
	Line   int        `json:"line"`
	Text   string     `json:"text"`
	Reason SkipReason `json:"reason"`
}

// FDList is the result of parsing dependency input.
type FDList struct {
	Dependencies []schema.FunctionalDependency `json:"dependencies"`
	Skipped      []SkippedLine                 `json:"skipped,omitempty"`
}

// ParseDependencyFile reads dependencies from a file.
func ParseDependencyFile(path string, opts ...Option) (*FDList, error) {
	f, err := os.Open(path) //nolint:gosec // path is from trusted source
	if err != nil {
		return nil, fmt.Errorf("opening dependency file: %w", err)
	}
	defer f.Close()
	return ParseDependencies(f, opts...)
}

// ParseDependencyString parses dependencies from a string.
func ParseDependencyString(s string, opts ...Option) (*FDList, error) {
	return ParseDependencies(strings.NewReader(s), opts...)
}

// ParseDependencies reads one dependency per line in the form "A,B->C,D"
// until EOF or the terminator line.
//
// Blank lines and lines starting with "#" are ignored. Lines without "->"
// are recorded in Skipped. Names are trimmed and empty names dropped, so
// "A, B -> C" and "A,B->C" are the same dependency. A side that ends up with
// no names is kept as an empty set; validation rejects it later.
func ParseDependencies(r io.Reader, opts ...Option) (*FDList, error) {
	o := buildOptions(opts)
	list := &FDList{}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		line := strings.TrimSpace(raw)

		if o.terminator != "" && line == o.terminator {
			break
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		lhs, rhs, ok := strings.Cut(line, Arrow)
		if !ok {
			list.Skipped = append(list.Skipped, SkippedLine{Line: lineNo, Text: raw, Reason: SkipNoArrow})
			continue
		}

		list.Dependencies = append(list.Dependencies, schema.FunctionalDependency{
			LHS: schema.NewAttributeSet(o.names(lhs)...),
			RHS: schema.NewAttributeSet(o.names(rhs)...),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading dependencies: %w", err)
	}

	return list, nil
}

// names splits a comma-separated side of a dependency.
func (o options) names(side string) []schema.Attribute {
	var attrs []schema.Attribute
	for _, part := range strings.Split(side, ",") {
		if name := strings.TrimSpace(part); name != "" {
			attrs = append(attrs, o.attribute(name))
		}
	}
	return attrs
}
