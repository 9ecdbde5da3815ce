// Package export writes recommendations to files the user can keep.
package export

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/stackwizard/internal/errors"
	"github.com/felixgeelhaar/stackwizard/internal/metrics"
	"github.com/felixgeelhaar/stackwizard/internal/questionnaire"
)

// FilePrefix starts every exported file name
const FilePrefix = "recomendaciones_"

// Format is an export file format
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatPDF  Format = "pdf"
)

// ParseFormat parses a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatPDF:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", errors.New(errors.ErrCodeExportFormatUnknown, fmt.Sprintf("unknown export format: %s", s)).
			WithSuggestion("Use one of: json, yaml, pdf")
	}
}

// FileName returns recomendaciones_<epoch ms>.<ext> for now
func FileName(format Format, now time.Time) string {
	return FilePrefix + strconv.FormatInt(now.UnixMilli(), 10) + "." + string(format)
}

// MarshalJSON renders recs as two-space indented JSON
func MarshalJSON(recs questionnaire.Recommendations) ([]byte, error) {
	if recs == nil {
		recs = questionnaire.Recommendations{}
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExportMarshal, "failed to encode recommendations as JSON", err)
	}
	return data, nil
}

// MarshalYAML renders recs as YAML
func MarshalYAML(recs questionnaire.Recommendations) ([]byte, error) {
	if recs == nil {
		recs = questionnaire.Recommendations{}
	}
	data, err := yaml.Marshal(map[questionnaire.Category][]string(recs))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExportMarshal, "failed to encode recommendations as YAML", err)
	}
	return data, nil
}

// componentEscaper turns QueryEscape output into encodeURIComponent output,
// which keeps !*'() and encodes spaces as %20.
var componentEscaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// DataURI returns the JSON export as a data: URI
func DataURI(recs questionnaire.Recommendations) (string, error) {
	data, err := MarshalJSON(recs)
	if err != nil {
		return "", err
	}
	return "data:text/json;charset=utf-8," + componentEscaper.Replace(url.QueryEscape(string(data))), nil
}

// Exporter writes export files into Dir
type Exporter struct {
	Dir     string
	Now     func() time.Time
	Metrics *metrics.Metrics
}

// New returns an exporter writing into dir ("" means the working directory)
func New(dir string, m *metrics.Metrics) *Exporter {
	return &Exporter{Dir: dir, Now: time.Now, Metrics: m}
}

// Export writes recs in format and returns the file path
func (e *Exporter) Export(format Format, recs questionnaire.Recommendations) (string, error) {
	path, err := e.export(format, recs)
	e.Metrics.Exported(string(format), err == nil)
	if err != nil {
		e.Metrics.Error(string(errors.CodeOf(err)))
	}
	return path, err
}

// JSON writes the JSON export
func (e *Exporter) JSON(recs questionnaire.Recommendations) (string, error) {
	return e.Export(FormatJSON, recs)
}

// YAML writes the YAML export
func (e *Exporter) YAML(recs questionnaire.Recommendations) (string, error) {
	return e.Export(FormatYAML, recs)
}

// PDF is not available yet
func (e *Exporter) PDF(recs questionnaire.Recommendations) (string, error) {
	return e.Export(FormatPDF, recs)
}

func (e *Exporter) export(format Format, recs questionnaire.Recommendations) (string, error) {
	if recs == nil {
		return "", errors.New(errors.ErrCodeExportEmpty, "no recommendations to export").
			WithSuggestion("Finish the questionnaire first")
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = MarshalJSON(recs)
	case FormatYAML:
		data, err = MarshalYAML(recs)
	case FormatPDF:
		return "", errors.NewPDFUnavailableError()
	default:
		_, err = ParseFormat(string(format))
	}
	if err != nil {
		return "", err
	}

	dir := e.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeDirectoryFailed, fmt.Sprintf("failed to create export directory: %s", dir), err)
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	path := filepath.Join(dir, FileName(format, now()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(errors.ErrCodeExportWrite, fmt.Sprintf("failed to write %s", path), err)
	}
	return path, nil
}

// Read loads an exported file back, picking the decoder from its extension
func Read(path string) (questionnaire.Recommendations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFoundError(path)
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, fmt.Sprintf("failed to read %s", path), err)
	}

	recs := questionnaire.Recommendations{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &recs); err != nil {
			return nil, errors.NewFileUnmarshalError(path, "YAML", err)
		}
	default:
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, errors.NewFileUnmarshalError(path, "JSON", err)
		}
	}
	return recs, nil
}
