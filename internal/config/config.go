// Package config handles stackwizard configuration using Viper.
//
// Values are layered: built-in defaults, then ~/.stackwizard/config.yaml (or
// the file passed with --config), then STACKWIZARD_* environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/stackwizard/internal/errors"
	"github.com/felixgeelhaar/stackwizard/internal/wizard"
)

const (
	// DirName is the per-user configuration directory under $HOME
	DirName = ".stackwizard"
	// FileName is the configuration file inside DirName
	FileName = "config.yaml"
	// EnvPrefix prefixes every environment override, e.g. STACKWIZARD_SERVER_URL
	EnvPrefix = "STACKWIZARD"
)

// Config holds the application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Wizard    WizardConfig    `mapstructure:"wizard" yaml:"wizard"`
	Export    ExportConfig    `mapstructure:"export" yaml:"export"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
}

// ServerConfig points at the recommendation backend.
type ServerConfig struct {
	URL     string        `mapstructure:"url" yaml:"url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// WizardConfig tunes navigation.
type WizardConfig struct {
	Mode               string `mapstructure:"mode" yaml:"mode"`
	AutoAdvance        bool   `mapstructure:"auto_advance" yaml:"auto_advance"`
	BackToLastQuestion bool   `mapstructure:"back_to_last_question" yaml:"back_to_last_question"`
}

// ExportConfig holds where exported recommendations are written.
type ExportConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	// File receives logs in TUI mode; empty discards them there.
	File string `mapstructure:"file" yaml:"file"`
}

// TelemetryConfig holds tracing settings.
type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	// Insecure talks plain HTTP to the collector
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:     "http://127.0.0.1:8000",
			Timeout: 30 * time.Second,
		},
		Wizard: WizardConfig{
			Mode:        string(wizard.ModePhase),
			AutoAdvance: true,
		},
		Export: ExportConfig{
			Dir: ".",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Dir returns the configuration directory
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeDirectoryFailed, "failed to get home directory", err)
	}
	return filepath.Join(home, DirName), nil
}

// Path returns the default configuration file path
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads configuration from file and environment. An empty path searches
// the default directory; a missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.NewFileNotFoundError(path)
		}
		v.SetConfigFile(path)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(errors.ErrCodeConfigRead, "failed to read configuration", err).
				WithSuggestion("Run 'stackwizard config path' to locate the file and check its YAML syntax")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "failed to decode configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults mirrors Default into v so every key is known to AutomaticEnv
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.url", d.Server.URL)
	v.SetDefault("server.timeout", d.Server.Timeout)
	v.SetDefault("wizard.mode", d.Wizard.Mode)
	v.SetDefault("wizard.auto_advance", d.Wizard.AutoAdvance)
	v.SetDefault("wizard.back_to_last_question", d.Wizard.BackToLastQuestion)
	v.SetDefault("export.dir", d.Export.Dir)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.endpoint", d.Telemetry.Endpoint)
	v.SetDefault("telemetry.insecure", d.Telemetry.Insecure)
}

var (
	validLevels  = []string{"debug", "info", "warn", "warning", "error"}
	validFormats = []string{"json", "text"}
)

// Validate checks the configuration values
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("server.url", c.Server.URL, "an http(s) URL such as http://127.0.0.1:8000")
	}
	if c.Server.Timeout <= 0 {
		return invalid("server.timeout", c.Server.Timeout.String(), "a positive duration such as 30s")
	}
	if _, err := wizard.ParseMode(c.Wizard.Mode); err != nil {
		return invalid("wizard.mode", c.Wizard.Mode, "phase or tree")
	}
	if !oneOf(c.Logging.Level, validLevels) {
		return invalid("logging.level", c.Logging.Level, strings.Join(validLevels[:4], ", "))
	}
	if !oneOf(c.Logging.Format, validFormats) {
		return invalid("logging.format", c.Logging.Format, strings.Join(validFormats, ", "))
	}
	return nil
}

func invalid(key, value, want string) error {
	return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("invalid %s: %q", key, value)).
		WithSuggestion(fmt.Sprintf("Set %s to %s", key, want))
}

func oneOf(s string, values []string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, v := range values {
		if s == v {
			return true
		}
	}
	return false
}

// Marshal renders cfg as YAML
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigWrite, "failed to marshal configuration", err)
	}
	return data, nil
}

// Save writes cfg to path, creating the directory when needed.
func Save(cfg *Config, path string) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeDirectoryFailed, "failed to create config directory", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeConfigWrite, "failed to write configuration", err)
	}
	return nil
}

// Init writes cfg, or the defaults when cfg is nil, to path unless a file
// already exists there and force is false.
func Init(path string, cfg *Config, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.New(errors.ErrCodeConfigWrite, fmt.Sprintf("configuration already exists: %s", path)).
			WithSuggestion("Use --force to overwrite it")
	}
	if cfg == nil {
		cfg = Default()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return Save(cfg, path)
}
