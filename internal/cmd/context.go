package cmd

import (
	"context"
	stderrors "errors"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/stackwizard/internal/backend"
	"github.com/felixgeelhaar/stackwizard/internal/config"
	"github.com/felixgeelhaar/stackwizard/internal/log"
	"github.com/felixgeelhaar/stackwizard/internal/metrics"
	"github.com/felixgeelhaar/stackwizard/internal/telemetry"
	"github.com/felixgeelhaar/stackwizard/internal/ux"
	"github.com/felixgeelhaar/stackwizard/internal/version"
)

// skipConfig marks commands that must work without a valid configuration
const skipConfig = "stackwizard/skip-config"

// rootOptions holds the persistent flags
type rootOptions struct {
	configPath string
	server     string
	timeout    time.Duration
	logLevel   string
	logFormat  string
	telemetry  bool
}

// CommandContext holds what subcommands share once the root command has
// loaded configuration. It replaces package-level state so tests can build
// independent command trees.
type CommandContext struct {
	Config *config.Config
	// ConfigPath is the --config flag; empty means the default location
	ConfigPath string
	Logger     *log.Logger
	Registry   *prometheus.Registry
	Metrics    *metrics.Metrics

	span    trace.Span
	closers []func(context.Context) error
}

// init loads configuration, applies flag overrides and sets up logging,
// metrics and tracing for cmd.
func (c *CommandContext) init(cmd *cobra.Command, opts *rootOptions) error {
	c.ConfigPath = opts.configPath
	c.Logger = log.Discard()
	if cmd.Annotations[skipConfig] == "true" {
		return nil
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.Server.URL = opts.server
	}
	if flags.Changed("timeout") {
		cfg.Server.Timeout = opts.timeout
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = opts.logFormat
	}
	if flags.Changed("telemetry") {
		cfg.Telemetry.Enabled = opts.telemetry
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.Config = cfg

	c.setLogger(cmd.ErrOrStderr())
	c.Registry, c.Metrics = metrics.NewRegistry()

	shutdown, err := telemetry.InitProvider(cmd.Context(), telemetry.Config{
		ServiceName:    version.Name,
		ServiceVersion: version.Version,
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     1.0,
	})
	if err != nil {
		return err
	}
	c.closers = append(c.closers, shutdown)

	ctx, span := telemetry.StartCommandSpan(cmd.Context(), cmd.Name())
	c.span = span
	cmd.SetContext(ctx)

	c.Logger.Debug("configuration loaded",
		"server", cfg.Server.URL,
		"mode", cfg.Wizard.Mode,
		"config", opts.configPath)
	return nil
}

func (c *CommandContext) setLogger(w io.Writer) {
	c.Logger = log.New(log.Config{
		Level:       log.ParseLevel(c.Config.Logging.Level),
		Format:      log.ParseFormat(c.Config.Logging.Format),
		Output:      log.NewOutput(w),
		ServiceName: version.Name,
	})
	log.SetDefault(c.Logger)
}

// redirectLogs moves logging off the terminal for the full-screen UI: into
// logging.file when set, otherwise nowhere.
func (c *CommandContext) redirectLogs() error {
	if c.Config.Logging.File == "" {
		c.setLogger(io.Discard)
		return nil
	}
	out, closer, err := log.OutputFile(c.Config.Logging.File)
	if err != nil {
		return err
	}
	c.closers = append(c.closers, func(context.Context) error { return closer.Close() })
	c.Logger = log.New(log.Config{
		Level:       log.ParseLevel(c.Config.Logging.Level),
		Format:      log.ParseFormat(c.Config.Logging.Format),
		Output:      out,
		ServiceName: version.Name,
	})
	log.SetDefault(c.Logger)
	return nil
}

// Client returns a backend client for the configured server
func (c *CommandContext) Client() *backend.Client {
	return backend.NewClient(c.Config.Server.URL,
		backend.WithTimeout(c.Config.Server.Timeout),
		backend.WithMetrics(c.Metrics),
		backend.WithLogger(c.Logger))
}

// newFormatter returns an output formatter writing to cmd's output
func newFormatter(cmd *cobra.Command, format string) (ux.Formatter, error) {
	return ux.NewFormatter(format, &ux.FormatterOptions{Writer: cmd.OutOrStdout()})
}

// Close ends the command span and flushes telemetry
func (c *CommandContext) Close(ctx context.Context, err error) error {
	if c.span != nil {
		if err != nil {
			telemetry.RecordError(c.span, err)
		} else {
			telemetry.RecordSuccess(c.span)
		}
		c.span.End()
		c.span = nil
	}

	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i](ctx))
	}
	c.closers = nil
	return stderrors.Join(errs...)
}
