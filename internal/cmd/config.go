package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/stackwizard/internal/config"
	"github.com/felixgeelhaar/stackwizard/internal/tui"
	"github.com/felixgeelhaar/stackwizard/internal/wizard"
)

func newConfigCmd(cc *CommandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or create stackwizard configuration",
		Long: `Manage configuration stored at ~/.stackwizard/config.yaml

Every key can be overridden with an environment variable named
STACKWIZARD_<SECTION>_<KEY>, for example STACKWIZARD_SERVER_URL.

Examples:
  # View the effective configuration
  stackwizard config view

  # Write the default configuration file
  stackwizard config init

  # Show configuration file path
  stackwizard config path
`,
	}

	cmd.AddCommand(newConfigViewCmd(cc), newConfigPathCmd(cc), newConfigInitCmd(cc))
	return cmd
}

func newConfigViewCmd(cc *CommandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Display the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format == "json" || format == "yaml" {
				formatter, err := newFormatter(cmd, format)
				if err != nil {
					return err
				}
				return formatter.Format(cc.Config)
			}

			path, err := configPath(cc)
			if err != nil {
				return err
			}
			data, err := config.Marshal(cc.Config)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file: %s\n\n%s", path, data)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json, yaml")
	return cmd
}

func newConfigPathCmd(cc *CommandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "path",
		Short:       "Show configuration file path",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configPath(cc)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

// Interactive prompts used by config init
var (
	promptString = tui.PromptForString
	promptSelect = tui.PromptForSelect
)

func newConfigInitCmd(cc *CommandContext) *cobra.Command {
	var force, yes bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the configuration file",
		Long: `Write ~/.stackwizard/config.yaml (or --config). On a terminal the backend
URL and navigation mode are asked for; --yes writes the defaults.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configPath(cc)
			if err != nil {
				return err
			}

			cfg := config.Default()
			if !yes && cmd.InOrStdin() == os.Stdin && tui.ShouldPrompt() {
				if err := promptConfig(cfg); err != nil {
					return err
				}
			}

			if err := config.Init(path, cfg, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.Flags().BoolVar(&yes, "yes", false, "write the defaults without prompting")
	return cmd
}

// promptConfig asks for the settings most users change
func promptConfig(cfg *config.Config) error {
	url, err := promptString("URL del servidor", "Base URL of the recommendation backend", cfg.Server.URL)
	if err != nil {
		return err
	}
	cfg.Server.URL = strings.TrimSpace(url)

	mode, err := promptSelect("Modo de navegación",
		[]string{string(wizard.ModePhase), string(wizard.ModeTree)}, cfg.Wizard.Mode)
	if err != nil {
		return err
	}
	cfg.Wizard.Mode = mode
	return nil
}

func configPath(cc *CommandContext) (string, error) {
	if cc.ConfigPath != "" {
		return cc.ConfigPath, nil
	}
	return config.Path()
}
