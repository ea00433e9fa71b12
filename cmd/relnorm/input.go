package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pthm/relnorm/internal/cli"
	"github.com/pthm/relnorm/pkg/parser"
	"github.com/pthm/relnorm/pkg/schema"
)

// inputs is the parsed table and dependency list.
type inputs struct {
	Table        *parser.Table
	Dependencies *parser.FDList
}

// Universe returns the attribute universe of the table.
func (in *inputs) Universe() *schema.Universe {
	return schema.NewUniverse(in.Table.Attributes)
}

// loadInputs reads the DDL and dependencies named by the configuration.
//
// A path of "-" reads stdin. With neither path set, stdin holds both: the DDL
// up to a line reading END, then the dependencies. When stdin is a terminal
// the interactive form is used instead.
func loadInputs(cmd *cobra.Command) (*inputs, error) {
	ddlPath, fdsPath := cfg.Input.DDL, cfg.Input.FDs
	stdin := cmd.InOrStdin()

	var ddlText, fdsText string
	if ddlPath == "" && fdsPath == "" && isTerminal(stdin) {
		var err error
		if ddlText, fdsText, err = promptInputs(); err != nil {
			return nil, cli.InputParseError("reading input", err)
		}
		return parseInputs(ddlText, strings.NewReader(fdsText))
	}

	// Both sections may come from one stdin stream, so share the reader.
	in := bufio.NewReader(stdin)

	switch ddlPath {
	case "", "-":
		text, err := readSection(in, parser.DefaultTerminator)
		if err != nil {
			return nil, cli.InputParseError("reading DDL from stdin", err)
		}
		ddlText = text
	default:
		content, err := os.ReadFile(ddlPath) //nolint:gosec // path is from trusted source
		if err != nil {
			return nil, cli.InputParseError("reading DDL file", err)
		}
		ddlText = string(content)
	}

	var fds io.Reader
	switch fdsPath {
	case "", "-":
		fds = in
	default:
		f, err := os.Open(fdsPath) //nolint:gosec // path is from trusted source
		if err != nil {
			return nil, cli.InputParseError("opening dependency file", err)
		}
		defer f.Close()
		fds = f
	}

	return parseInputs(ddlText, fds)
}

func parseInputs(ddlText string, fds io.Reader) (*inputs, error) {
	opts := cfg.ParserOptions()

	table, err := parser.ParseDDL(ddlText, opts...)
	if err != nil {
		return nil, cli.InputParseError("parsing DDL", err)
	}
	if table.Lenient {
		logger.Warn("DDL is not valid PostgreSQL, used lenient parser", "table", table.Name)
	}

	deps, err := parser.ParseDependencies(fds, opts...)
	if err != nil {
		return nil, cli.InputParseError("parsing dependencies", err)
	}
	for _, s := range deps.Skipped {
		logger.Warn("dependency line skipped", "line", s.Line, "text", s.Text, "reason", string(s.Reason))
	}

	logger.Info("inputs parsed",
		"table", table.Name, "attributes", table.Attributes.Len(), "dependencies", len(deps.Dependencies))
	return &inputs{Table: table, Dependencies: deps}, nil
}

// readSection reads lines up to the terminator line or EOF.
func readSection(r *bufio.Reader, terminator string) (string, error) {
	var sb strings.Builder
	for {
		line, err := r.ReadString('\n')
		if strings.TrimSpace(line) == terminator && terminator != "" {
			return sb.String(), nil
		}
		sb.WriteString(line)
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return "", err
		}
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// promptInputs collects the DDL and dependencies with an interactive form.
func promptInputs() (ddlText, fdsText string, err error) {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Table definition").
				Description("A CREATE TABLE statement").
				Lines(8).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("a table definition is required")
					}
					return nil
				}).
				Value(&ddlText),
			huh.NewText().
				Title("Functional dependencies").
				Description("One per line, e.g. A,B->C").
				Lines(8).
				Value(&fdsText),
		),
	)
	if err := form.Run(); err != nil {
		return "", "", fmt.Errorf("interactive input: %w", err)
	}
	return ddlText, fdsText, nil
}
