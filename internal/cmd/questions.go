package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/stackwizard/internal/errors"
	"github.com/felixgeelhaar/stackwizard/internal/questionnaire"
)

func newQuestionsCmd(cc *CommandContext) *cobra.Command {
	var (
		format string
		tree   bool
	)

	cmd := &cobra.Command{
		Use:   "questions [phase]",
		Short: "List the questions of a phase",
		Long: `List the questions of one phase (1-5) as served by the backend, or the
whole flattened flow with --tree.

Examples:
  stackwizard questions 2
  stackwizard questions --tree --format yaml
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := cc.Client()

			var (
				questions []questionnaire.Question
				err       error
			)
			if tree {
				questions, err = client.Tree(cmd.Context())
			} else {
				phase, perr := parsePhase(args)
				if perr != nil {
					return perr
				}
				questions, err = client.Questions(cmd.Context(), phase)
			}
			if err != nil {
				return err
			}

			formatter, err := newFormatter(cmd, format)
			if err != nil {
				return err
			}
			return formatter.Format(questions)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json, yaml")
	cmd.Flags().BoolVar(&tree, "tree", false, "list the flattened flow instead of one phase")
	return cmd
}

func parsePhase(args []string) (int, error) {
	if len(args) == 0 {
		return 0, errors.New(errors.ErrCodeWizardPhaseOutOfRange, "missing argument: phase").
			WithSuggestion("Pass a phase number between 1 and 5, or use --tree")
	}
	phase, err := strconv.Atoi(args[0])
	if err != nil || phase < 1 || phase > questionnaire.PhaseCount {
		return 0, errors.NewPhaseOutOfRangeError(phase, questionnaire.PhaseCount)
	}
	return phase, nil
}

func newPhasesCmd(cc *CommandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "phases",
		Short: "List the phases known to the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			phases, err := cc.Client().Phases(cmd.Context())
			if err != nil {
				return err
			}
			formatter, err := newFormatter(cmd, format)
			if err != nil {
				return err
			}
			return formatter.Format(phases)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json, yaml")
	return cmd
}
