package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newRootCmd(cc *CommandContext) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "stackwizard",
		Short: "Asistente de Selección Tecnológica",
		Long: `stackwizard walks you through five phases of single-choice questions about
your project, sends the answers to the recommendation backend and shows the
suggested frontend, backend, database, architecture, methodology and security
choices. Results can be exported as JSON or YAML.

Start the questionnaire with 'stackwizard run'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return cc.init(cmd, opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default is $HOME/.stackwizard/config.yaml)")
	pf.StringVar(&opts.server, "server", "", "backend base URL (overrides server.url)")
	pf.DurationVar(&opts.timeout, "timeout", 0, "backend request timeout (overrides server.timeout)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&opts.logFormat, "log-format", "", "log format: text, json")
	pf.BoolVar(&opts.telemetry, "telemetry", false, "export traces to telemetry.endpoint")

	root.AddCommand(
		newRunCmd(cc),
		newQuestionsCmd(cc),
		newPhasesCmd(cc),
		newExportCmd(cc),
		newConfigCmd(cc),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command. Cancelling ctx stops the wizard.
func ExecuteContext(ctx context.Context) error {
	cc := &CommandContext{}
	err := newRootCmd(cc).ExecuteContext(ctx)

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if cerr := cc.Close(closeCtx, err); cerr != nil && cc.Logger != nil {
		cc.Logger.WithError(cerr).Warn("failed to flush telemetry")
	}
	return err
}
