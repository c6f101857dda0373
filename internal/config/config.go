// Package config loads and validates glsel configuration.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	gerrors "glsel/internal/errors"
)

// Config represents the complete glsel configuration
type Config struct {
	BaseURL string `json:"baseUrl" mapstructure:"base_url"`
	Token   string `json:"-" mapstructure:"token"`

	// Groups are the configured scopes, refreshed in this order.
	// Empty means the caller's own project membership is used instead.
	Groups []string `json:"groups" mapstructure:"groups"`

	DBPath string `json:"dbPath" mapstructure:"db_path"`

	PerPage           int `json:"perPage" mapstructure:"per_page"`
	MaxConcurrent     int `json:"maxConcurrent" mapstructure:"max_concurrent"`
	RetryAttempts     int `json:"retryAttempts" mapstructure:"retry_attempts"`
	RetryDelayMs      int `json:"retryDelayMs" mapstructure:"retry_delay_ms"`
	MinRefreshMinutes int `json:"minRefreshMinutes" mapstructure:"min_refresh_minutes"`
	StaleDays         int `json:"staleDays" mapstructure:"stale_days"`

	CloneRoot    string `json:"cloneRoot" mapstructure:"clone_root"`
	PostCloneCmd string `json:"postCloneCmd" mapstructure:"post_clone_cmd"`

	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:           "https://gitlab.com",
		DBPath:            "~/.local/share/glsel/projects.db",
		PerPage:           100,
		MaxConcurrent:     8,
		RetryAttempts:     3,
		RetryDelayMs:      250,
		MinRefreshMinutes: 10,
		StaleDays:         30,
		CloneRoot:         "~/src",
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load reads configuration from the given file, or from
// ~/.config/glsel/config.yaml when path is empty. A missing config file is
// not an error; defaults plus environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Every key needs a default (even an empty one) so viper resolves its
	// GLSEL_ environment override during Unmarshal.
	def := DefaultConfig()
	v.SetDefault("base_url", def.BaseURL)
	v.SetDefault("token", "")
	v.SetDefault("groups", []string{})
	v.SetDefault("db_path", def.DBPath)
	v.SetDefault("per_page", def.PerPage)
	v.SetDefault("max_concurrent", def.MaxConcurrent)
	v.SetDefault("retry_attempts", def.RetryAttempts)
	v.SetDefault("retry_delay_ms", def.RetryDelayMs)
	v.SetDefault("min_refresh_minutes", def.MinRefreshMinutes)
	v.SetDefault("stale_days", def.StaleDays)
	v.SetDefault("clone_root", def.CloneRoot)
	v.SetDefault("post_clone_cmd", "")
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.level", def.Logging.Level)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(configHome(), "glsel"))
	}

	v.SetEnvPrefix("GLSEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// An explicitly given file must exist
			if path != "" || !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// GITLAB_TOKEN is honored as a fallback so the token can be shared with
	// other GitLab tooling.
	if cfg.Token == "" {
		cfg.Token = os.Getenv("GITLAB_TOKEN")
	}

	cfg.DBPath = ExpandHome(cfg.DBPath)
	cfg.CloneRoot = ExpandHome(cfg.CloneRoot)

	return &cfg, nil
}

// Validate checks that everything required before any I/O is present
func (c *Config) Validate() error {
	if c.Token == "" {
		return gerrors.New(gerrors.ConfigMissing, "no GitLab token configured", nil)
	}
	if c.BaseURL == "" {
		return gerrors.New(gerrors.ConfigMissing, "no GitLab base URL configured", nil)
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

func configHome() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return xdg
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config")
}
