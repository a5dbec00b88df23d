package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/arnavsurve/ideflow/pkg/adapter"
	"github.com/spf13/viper"
)

const (
	DefaultFile = "ideflow.yml"
	EnvPrefix   = "IDEFLOW"
)

type TerminalConfig struct {
	Shell string `mapstructure:"shell"`
}

type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type IDEConfig struct {
	Command string `mapstructure:"command"`
}

type BrowserConfig struct {
	Command      string        `mapstructure:"command"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

type AdaptersConfig struct {
	Terminal TerminalConfig `mapstructure:"terminal"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	IDE      IDEConfig      `mapstructure:"ide"`
	Browser  BrowserConfig  `mapstructure:"browser"`
}

type IntentConfig struct {
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
}

type Config struct {
	LogDir        string         `mapstructure:"log_dir"`
	LogLevel      string         `mapstructure:"log_level"`
	TemplatesDir  string         `mapstructure:"templates_dir"`
	CatalogFile   string         `mapstructure:"catalog_file"`
	DefaultSystem string         `mapstructure:"default_system"`
	Intent        IntentConfig   `mapstructure:"intent"`
	Adapters      AdaptersConfig `mapstructure:"adapters"`
	RedactEnv     []string       `mapstructure:"redact_env"`
}

func DefaultConfig() *Config {
	return &Config{
		LogDir:       ".ideflow/logs",
		LogLevel:     "info",
		TemplatesDir: "templates",
		Intent: IntentConfig{
			ConfidenceThreshold: 0.85,
		},
		Adapters: AdaptersConfig{
			Terminal: TerminalConfig{Shell: "/bin/bash"},
			HTTP:     HTTPConfig{Timeout: 30 * time.Second},
			IDE:      IDEConfig{Command: "code"},
			Browser: BrowserConfig{
				Command:      defaultOpener(),
				FetchTimeout: 15 * time.Second,
			},
		},
		RedactEnv: []string{},
	}
}

func defaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "windows":
		return "explorer"
	default:
		return "xdg-open"
	}
}

// Load reads the configuration file at path, or ideflow.yml in the working
// directory when path is empty. A missing default file is not an error; a
// missing explicit path is. IDEFLOW_* environment variables override both.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ideflow")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.ideflow/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log_dir", config.LogDir)
	v.SetDefault("log_level", config.LogLevel)
	v.SetDefault("templates_dir", config.TemplatesDir)
	v.SetDefault("catalog_file", config.CatalogFile)
	v.SetDefault("default_system", config.DefaultSystem)
	v.SetDefault("intent.confidence_threshold", config.Intent.ConfidenceThreshold)

	v.SetDefault("adapters.terminal.shell", config.Adapters.Terminal.Shell)
	v.SetDefault("adapters.http.timeout", config.Adapters.HTTP.Timeout)
	v.SetDefault("adapters.ide.command", config.Adapters.IDE.Command)
	v.SetDefault("adapters.browser.command", config.Adapters.Browser.Command)
	v.SetDefault("adapters.browser.fetch_timeout", config.Adapters.Browser.FetchTimeout)

	v.SetDefault("redact_env", config.RedactEnv)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func validateConfig(config *Config) error {
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return fmt.Errorf("invalid log level: %s", config.LogLevel)
	}
	if config.LogDir == "" {
		return fmt.Errorf("the log directory cannot be empty")
	}
	if t := config.Intent.ConfidenceThreshold; t < 0 || t > 1 {
		return fmt.Errorf("intent.confidence_threshold must be between 0 and 1, got %v", t)
	}
	if config.Adapters.HTTP.Timeout <= 0 {
		return fmt.Errorf("adapters.http.timeout must be positive")
	}
	if config.Adapters.Browser.FetchTimeout <= 0 {
		return fmt.Errorf("adapters.browser.fetch_timeout must be positive")
	}
	if config.Adapters.Terminal.Shell == "" {
		return fmt.Errorf("adapters.terminal.shell cannot be empty")
	}
	return nil
}

// AdapterSettings builds the settings handed to adapter factories. workDir
// is the directory relative paths in step parameters resolve against.
func (c *Config) AdapterSettings(workDir string) adapter.Settings {
	return adapter.Settings{
		WorkDir:        workDir,
		Shell:          c.Adapters.Terminal.Shell,
		HTTPTimeout:    c.Adapters.HTTP.Timeout,
		IDECommand:     c.Adapters.IDE.Command,
		BrowserCommand: c.Adapters.Browser.Command,
		FetchTimeout:   c.Adapters.Browser.FetchTimeout,
	}
}
