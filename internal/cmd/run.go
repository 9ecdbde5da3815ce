package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/stackwizard/internal/console"
	"github.com/felixgeelhaar/stackwizard/internal/export"
	"github.com/felixgeelhaar/stackwizard/internal/metrics"
	"github.com/felixgeelhaar/stackwizard/internal/tui"
	"github.com/felixgeelhaar/stackwizard/internal/wizard"
)

type runOptions struct {
	mode        string
	tui         bool
	exportDir   string
	metricsAddr string
	autoAdvance bool
	backToLast  bool
}

func newRunCmd(cc *CommandContext) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the questionnaire",
		Long: `Start the technology selection questionnaire.

Questions are loaded phase by phase (--mode phase) or as one flattened flow
(--mode tree). On a terminal the full-screen interface is used; with piped
input, or with --tui=false, a line-oriented interface reads commands from stdin:

  <number>  choose an option        n  next question
  p         previous question       f  finish and submit
                                    (tree mode, or phase mode at the last question)
  e / y     export JSON / YAML      r  start again
  q         quit

Examples:
  # Walk the five phases against a local backend
  stackwizard run --server http://127.0.0.1:8000

  # Use the flattened flow and write exports to ./out
  stackwizard run --mode tree --export-dir out
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWizard(cmd, cc, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.mode, "mode", "", "navigation mode: phase or tree (overrides wizard.mode)")
	f.BoolVar(&opts.tui, "tui", true, "use the full-screen interface when stdin is a terminal")
	f.StringVar(&opts.exportDir, "export-dir", "", "directory for exported recommendations (overrides export.dir)")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	f.BoolVar(&opts.autoAdvance, "auto-advance", true, "move to the next question after choosing an option")
	f.BoolVar(&opts.backToLast, "back-to-last", false, "going back across a phase lands on its last question")
	return cmd
}

func runWizard(cmd *cobra.Command, cc *CommandContext, opts *runOptions) error {
	ctx := cmd.Context()
	cfg := cc.Config
	flags := cmd.Flags()

	modeName := cfg.Wizard.Mode
	if flags.Changed("mode") {
		modeName = opts.mode
	}
	mode, err := wizard.ParseMode(modeName)
	if err != nil {
		return err
	}

	wcfg := wizard.Config{
		AutoAdvance:        cfg.Wizard.AutoAdvance,
		BackToLastQuestion: cfg.Wizard.BackToLastQuestion,
		Metrics:            cc.Metrics,
	}
	if flags.Changed("auto-advance") {
		wcfg.AutoAdvance = opts.autoAdvance
	}
	if flags.Changed("back-to-last") {
		wcfg.BackToLastQuestion = opts.backToLast
	}

	dir := cfg.Export.Dir
	if flags.Changed("export-dir") {
		dir = opts.exportDir
	}
	exporter := export.New(dir, cc.Metrics)

	if opts.metricsAddr != "" {
		addr, err := metrics.Serve(ctx, opts.metricsAddr, cc.Registry)
		if err != nil {
			return err
		}
		cc.Logger.Info("serving metrics", "addr", addr.String())
	}

	client := cc.Client()
	source, err := wizard.NewSource(mode, client)
	if err != nil {
		return err
	}

	fromTerminal := cmd.InOrStdin() == os.Stdin
	if opts.tui && fromTerminal && tui.IsInteractive() {
		if err := cc.redirectLogs(); err != nil {
			return err
		}
		wcfg.Logger = cc.Logger
		model := tui.NewModel(ctx, source, client, exporter, wcfg)
		err := tui.Run(model)
		model.Controller().Wait()
		return err
	}

	wcfg.Logger = cc.Logger
	renderer := console.NewRenderer(cmd.OutOrStdout())
	ctl := wizard.New(nil, source, client, renderer, wcfg)
	runner := console.NewRunner(ctl, renderer, cmd.InOrStdin(), exporter, cc.Logger)
	if fromTerminal && tui.ShouldPrompt() {
		runner.Confirm = tui.ConfirmSubmit
	}

	cc.Logger.Debug("starting line mode", "mode", string(mode))
	err = runner.Run(ctx)
	ctl.Wait()
	return err
}
