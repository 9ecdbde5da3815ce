package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Format represents the output format for logs
type Format int

const (
	// FormatJSON outputs logs in JSON format
	FormatJSON Format = iota
	// FormatText outputs logs in human-readable text format
	FormatText
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	default:
		return "json"
	}
}

// ParseFormat parses a string into a Format
func ParseFormat(s string) Format {
	switch s {
	case "text", "TEXT", "console":
		return FormatText
	default:
		return FormatJSON
	}
}

// Output represents where logs should be written
type Output struct {
	writer io.Writer
}

// Writer returns the underlying io.Writer
func (o Output) Writer() io.Writer {
	if o.writer == nil {
		return io.Discard
	}
	return o.writer
}

// NewOutput creates an Output from an io.Writer
func NewOutput(w io.Writer) Output {
	return Output{writer: w}
}

// OutputStderr creates an Output that writes to stderr.
// The wizard owns stdout for questions and results.
func OutputStderr() Output {
	return Output{writer: os.Stderr}
}

// OutputDiscard drops every record.
func OutputDiscard() Output {
	return Output{writer: io.Discard}
}

// OutputFile appends to the file at path, creating parent directories.
// The terminal UI uses it so log lines never land on the alt screen.
func OutputFile(path string) (Output, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Output{}, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return Output{}, nil, fmt.Errorf("open log file: %w", err)
	}
	return Output{writer: f}, f, nil
}

// Config holds configuration for the logger
type Config struct {
	// Level is the minimum log level to output
	Level Level

	// Format is the output format (JSON or Text)
	Format Format

	// Output is where logs should be written
	Output Output

	// AddSource includes source file and line number in logs
	AddSource bool

	// ServiceName is attached to every record
	ServiceName string
}

// DefaultConfig logs at WARN level in text format to stderr, so an
// interactive session stays quiet unless something goes wrong.
func DefaultConfig() Config {
	return Config{
		Level:       LevelWarn,
		Format:      FormatText,
		Output:      OutputStderr(),
		ServiceName: "stackwizard",
	}
}

// DevelopmentConfig logs everything with source locations
func DevelopmentConfig() Config {
	return Config{
		Level:       LevelDebug,
		Format:      FormatText,
		Output:      OutputStderr(),
		AddSource:   true,
		ServiceName: "stackwizard",
	}
}
