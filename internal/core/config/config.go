// Package config handles configuration loading and validation for inbox.
package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/inbox/internal/core/styles"
)

// Config holds the application configuration.
type Config struct {
	Server         ServerConfig `yaml:"server"`
	Push           PushConfig   `yaml:"push"`
	RefreshOnStart *bool        `yaml:"refresh_on_start"`
	TUI            TUIConfig    `yaml:"tui"`
}

// ServerConfig locates the notification API.
type ServerConfig struct {
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// PushConfig tunes the push channel and its polling fallback.
type PushConfig struct {
	FallbackInterval time.Duration `yaml:"fallback_interval"`
}

// TUIConfig holds interactive view settings.
type TUIConfig struct {
	Theme        string `yaml:"theme"`
	BodyMarkdown *bool  `yaml:"body_markdown"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			BaseURL:        "http://localhost:8080",
			RequestTimeout: 30 * time.Second,
		},
		Push: PushConfig{
			FallbackInterval: 5 * time.Minute,
		},
		RefreshOnStart: ptr(true),
		TUI: TUIConfig{
			Theme:        "tokyo-night",
			BodyMarkdown: ptr(true),
		},
	}
}

// Load reads configuration from the given path. If configPath is empty or
// doesn't exist, defaults are returned.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	// Apply defaults for zero values
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = defaults.Server.BaseURL
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = defaults.Server.RequestTimeout
	}
	if c.Push.FallbackInterval == 0 {
		c.Push.FallbackInterval = defaults.Push.FallbackInterval
	}
	if c.RefreshOnStart == nil {
		c.RefreshOnStart = defaults.RefreshOnStart
	}
	if c.TUI.Theme == "" {
		c.TUI.Theme = defaults.TUI.Theme
	}
	if c.TUI.BodyMarkdown == nil {
		c.TUI.BodyMarkdown = defaults.TUI.BodyMarkdown
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("server.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.base_url must use http or https, got %q", c.Server.BaseURL)
	}

	if c.Server.RequestTimeout < 0 {
		return fmt.Errorf("server.request_timeout cannot be negative")
	}

	if c.Push.FallbackInterval < time.Second {
		return fmt.Errorf("push.fallback_interval must be at least 1s")
	}

	if names := styles.ThemeNames(); !slices.Contains(names, c.TUI.Theme) {
		return fmt.Errorf("tui.theme %q is not one of %s", c.TUI.Theme, strings.Join(names, ", "))
	}

	return nil
}

// ShouldRefreshOnStart reports whether a session performs a full refresh
// when it starts.
func (c *Config) ShouldRefreshOnStart() bool {
	return c.RefreshOnStart == nil || *c.RefreshOnStart
}

// RenderMarkdown reports whether notification bodies are rendered as markdown.
func (c *Config) RenderMarkdown() bool {
	return c.TUI.BodyMarkdown == nil || *c.TUI.BodyMarkdown
}

func ptr[T any](v T) *T { return &v }
