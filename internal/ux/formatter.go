// Package ux formats command output and adds recovery hints to errors.
package ux

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/stackwizard/internal/errors"
	"github.com/felixgeelhaar/stackwizard/internal/questionnaire"
	"github.com/felixgeelhaar/stackwizard/internal/wizard"
)

// Formatter defines the interface for output formatters.
// This enables consistent output formatting across all commands.
type Formatter interface {
	// Format writes the given data to the output writer
	Format(data interface{}) error
}

// FormatterOptions contains configuration for formatters
type FormatterOptions struct {
	// Writer is where output is written (defaults to os.Stdout)
	Writer io.Writer
	// Compact enables compact output (no indentation for JSON/YAML)
	Compact bool
}

// NewFormatter creates a formatter based on the format string
func NewFormatter(format string, opts *FormatterOptions) (Formatter, error) {
	if opts == nil {
		opts = &FormatterOptions{Writer: os.Stdout}
	}
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	switch format {
	case "json":
		return &JSONFormatter{opts: opts}, nil
	case "yaml", "yml":
		return &YAMLFormatter{opts: opts}, nil
	case "text", "":
		return &TextFormatter{opts: opts}, nil
	default:
		return nil, errors.New(errors.ErrCodeExportFormatUnknown, fmt.Sprintf("unknown format: %s", format)).
			WithSuggestion("Use one of: text, json, yaml")
	}
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	opts *FormatterOptions
}

// Format writes data as JSON
func (f *JSONFormatter) Format(data interface{}) error {
	encoder := json.NewEncoder(f.opts.Writer)
	if !f.opts.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// YAMLFormatter formats output as YAML
type YAMLFormatter struct {
	opts *FormatterOptions
}

// Format writes data as YAML
func (f *YAMLFormatter) Format(data interface{}) error {
	encoder := yaml.NewEncoder(f.opts.Writer)
	if !f.opts.Compact {
		encoder.SetIndent(2)
	}
	defer encoder.Close()
	return encoder.Encode(data)
}

// TextFormatter formats output as human-readable text
type TextFormatter struct {
	opts *FormatterOptions
}

// Format writes data as formatted text. Questions, phase summaries and
// recommendations get a dedicated layout; other values must be strings or
// implement fmt.Stringer.
func (f *TextFormatter) Format(data interface{}) error {
	var text string
	switch v := data.(type) {
	case string:
		text = v
	case []questionnaire.Question:
		text = formatQuestions(v)
	case []questionnaire.PhaseSummary:
		text = formatPhases(v)
	case questionnaire.Recommendations:
		text = formatRecommendations(v)
	case fmt.Stringer:
		text = v.String()
	default:
		return fmt.Errorf("text formatter cannot render %T; use --format json or yaml", data)
	}
	_, err := fmt.Fprintln(f.opts.Writer, strings.TrimRight(text, "\n"))
	return err
}

func formatQuestions(questions []questionnaire.Question) string {
	if len(questions) == 0 {
		return wizard.EmptyPhaseText
	}

	var b strings.Builder
	for i, q := range questions {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s [%s]\n", i+1, q.Text, q.ID)
		if d := q.Description(); d != "" {
			fmt.Fprintf(&b, "   %s\n", d)
		}
		if len(q.Options) == 0 {
			fmt.Fprintf(&b, "   %s\n", wizard.NoOptionsText)
		}
		for j, o := range q.Options {
			fmt.Fprintf(&b, "   %d) %s [%s]\n", j+1, o.DisplayText(), o.ID)
		}
	}
	return b.String()
}

func formatPhases(phases []questionnaire.PhaseSummary) string {
	var b strings.Builder
	for _, p := range phases {
		fmt.Fprintf(&b, "%-8s %s\n", p.ID, p.Text)
	}
	return b.String()
}

func formatRecommendations(recs questionnaire.Recommendations) string {
	var b strings.Builder
	for _, s := range wizard.ResultSections(recs) {
		b.WriteString(s.Label + "\n")
		if len(s.Items) == 0 {
			fmt.Fprintf(&b, "  %s\n", wizard.EmptyCategory)
		}
		for _, item := range s.Items {
			fmt.Fprintf(&b, "  • %s\n", item)
		}
	}
	return b.String()
}

// Compile-time verification that formatters implement Formatter
var _ Formatter = (*JSONFormatter)(nil)
var _ Formatter = (*YAMLFormatter)(nil)
var _ Formatter = (*TextFormatter)(nil)
