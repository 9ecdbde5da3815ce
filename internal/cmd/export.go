package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/stackwizard/internal/errors"
	"github.com/felixgeelhaar/stackwizard/internal/export"
	"github.com/felixgeelhaar/stackwizard/internal/questionnaire"
)

func newExportCmd(cc *CommandContext) *cobra.Command {
	var (
		in     string
		format string
		outDir string
		show   bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Evaluate saved answers and export the recommendations",
		Long: `Send a saved answer payload to the backend and write the resulting
recommendations to recomendaciones_<timestamp>.<ext>.

The input is a JSON or YAML file holding either the payload array
[{questionId, answerId, phase}, ...] or a session record {id, answers, timestamp}.

Examples:
  stackwizard export --in answers.json
  stackwizard export --in session.yaml --format yaml --out-dir out
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			answers, err := readAnswers(in)
			if err != nil {
				return err
			}

			recs, err := cc.Client().Evaluate(cmd.Context(), answers)
			if err != nil {
				return err
			}

			if show {
				formatter, err := newFormatter(cmd, "text")
				if err != nil {
					return err
				}
				if err := formatter.Format(recs); err != nil {
					return err
				}
			}

			dir := cc.Config.Export.Dir
			if cmd.Flags().Changed("out-dir") {
				dir = outDir
			}
			path, err := export.New(dir, cc.Metrics).Export(f, recs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recomendaciones exportadas a %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "answers file (JSON or YAML)")
	cmd.Flags().StringVar(&format, "format", "json", "export format: json, yaml, pdf")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "output directory (overrides export.dir)")
	cmd.Flags().BoolVar(&show, "show", false, "also print the recommendations")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

// readAnswers loads a payload array or a session record from path
func readAnswers(path string) ([]questionnaire.Answer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFoundError(path)
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, fmt.Sprintf("failed to read %s", path), err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return decodeAnswers(path, "YAML", data, yaml.Unmarshal)
	default:
		return decodeAnswers(path, "JSON", data, json.Unmarshal)
	}
}

// decodeAnswers accepts the payload array first and falls back to a session
// record. A file without any answer is rejected.
func decodeAnswers(path, format string, data []byte, unmarshal func([]byte, any) error) ([]questionnaire.Answer, error) {
	var answers []questionnaire.Answer
	if err := unmarshal(data, &answers); err != nil {
		var session questionnaire.Session
		if serr := unmarshal(data, &session); serr != nil {
			return nil, errors.NewFileUnmarshalError(path, format, err)
		}
		answers = session.Answers
	}

	if len(answers) == 0 {
		return nil, errors.New(errors.ErrCodeFileUnmarshal, fmt.Sprintf("no answers found in %s", path)).
			WithSuggestion("Provide [{questionId, answerId, phase}, ...] or a session record with answers")
	}
	return answers, nil
}
