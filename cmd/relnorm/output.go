package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"sigs.k8s.io/yaml"

	"github.com/pthm/relnorm/internal/cli"
	"github.com/pthm/relnorm/internal/doctor"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func init() {
	doctor.Heading = heading
}

func heading(s string) string {
	return headingStyle.Render(s)
}

// render writes v as YAML or JSON, or calls text for the text format.
// YAML goes through the JSON tags of v.
func render(w io.Writer, v any, text func(io.Writer) error) error {
	switch cfg.Output {
	case cli.OutputJSON:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case cli.OutputYAML:
		out, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		return text(w)
	}
}
