package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pixil98/go-errors"
	"gopkg.in/yaml.v3"

	"deskmates.dev/internal/scene"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Scene    SceneConfig    `yaml:"scene"`
	Chat     ChatConfig     `yaml:"chat"`
	Auth     AuthConfig     `yaml:"auth"`
	Session  SessionConfig  `yaml:"session"`
	Database DatabaseConfig `yaml:"database"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	StaticDir       string        `yaml:"static_dir"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// SceneConfig holds simulation settings
type SceneConfig struct {
	LayoutPath string       `yaml:"layout_path"` // empty uses the built-in office
	AssetDir   string       `yaml:"asset_dir"`
	Characters int          `yaml:"characters"` // sprite sets available under asset_dir
	TickRate   int          `yaml:"tick_rate_hz"`
	Seed       uint64       `yaml:"seed"` // 0 seeds from the clock
	Tuning     scene.Tuning `yaml:"tuning"`
}

// ChatConfig holds settings for the chat-completion relay
type ChatConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`

	// RequireSession rejects chat from visitors who are not signed in
	RequireSession bool `yaml:"require_session"`
}

// AuthConfig holds settings for the hosted auth provider
type AuthConfig struct {
	URL      string        `yaml:"url"`
	AnonKey  string        `yaml:"anon_key"`
	Provider string        `yaml:"oauth_provider"`
	Timeout  time.Duration `yaml:"timeout"`
}

// SessionConfig holds cookie settings
type SessionConfig struct {
	Secret     string        `yaml:"secret"`
	CookieName string        `yaml:"cookie_name"`
	MaxAge     time.Duration `yaml:"max_age"`
	Secure     bool          `yaml:"secure"`
}

// DatabaseConfig holds the user store location
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			StaticDir:       "static",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Scene: SceneConfig{
			AssetDir:   "static/assets",
			Characters: 4,
			TickRate:   60,
			Tuning:     scene.DefaultTuning(),
		},
		Chat: ChatConfig{
			BaseURL:     "https://api.deepseek.com/v1",
			Model:       "deepseek-chat",
			Temperature: 0.7,
			MaxTokens:   1000,
			Timeout:     60 * time.Second,

			RequireSession: true,
		},
		Auth: AuthConfig{
			Provider: "google",
			Timeout:  10 * time.Second,
		},
		Session: SessionConfig{
			CookieName: "deskmates_session",
			MaxAge:     7 * 24 * time.Hour,
		},
		Database: DatabaseConfig{
			Path: "data/deskmates.db",
		},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// envOverrides maps environment variables to the settings they replace
var envOverrides = map[string]func(*Config, string){
	"SERVER_ADDR":       func(c *Config, v string) { c.Server.Addr = v },
	"DEEPSEEK_API_KEY":  func(c *Config, v string) { c.Chat.APIKey = v },
	"SUPABASE_URL":      func(c *Config, v string) { c.Auth.URL = v },
	"SUPABASE_ANON_KEY": func(c *Config, v string) { c.Auth.AnonKey = v },
	"SESSION_SECRET":    func(c *Config, v string) { c.Session.Secret = v },
	"DATABASE_PATH":     func(c *Config, v string) { c.Database.Path = v },
	"LOG_LEVEL":         func(c *Config, v string) { c.Log.Level = v },
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	for key, set := range envOverrides {
		if v, ok := lookup(key); ok && v != "" {
			set(c, v)
		}
	}
}

// Validate reports every problem with the configuration at once
func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.Server.Addr == "" {
		el.Add(fmt.Errorf("server.addr is required"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		el.Add(fmt.Errorf("server.shutdown_timeout must be positive"))
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		el.Add(fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	el.Add(c.Scene.validate())
	el.Add(c.Chat.validate())
	el.Add(c.Auth.validate())
	el.Add(c.Session.validate())

	if c.Database.Path == "" {
		el.Add(fmt.Errorf("database.path is required"))
	}

	return el.Err()
}

func (c *SceneConfig) validate() error {
	el := errors.NewErrorList()

	if c.TickRate <= 0 {
		el.Add(fmt.Errorf("scene.tick_rate_hz must be positive"))
	}
	if c.AssetDir == "" {
		el.Add(fmt.Errorf("scene.asset_dir is required"))
	}
	if c.Characters <= 0 {
		el.Add(fmt.Errorf("scene.characters must be positive"))
	}
	if err := c.Tuning.Validate(); err != nil {
		el.Add(fmt.Errorf("scene.tuning: %w", err))
	}

	return el.Err()
}

func (c *ChatConfig) validate() error {
	el := errors.NewErrorList()

	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		el.Add(fmt.Errorf("chat.base_url: %w", err))
	}
	if c.Model == "" {
		el.Add(fmt.Errorf("chat.model is required"))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		el.Add(fmt.Errorf("chat.temperature must be within [0, 2]"))
	}
	if c.MaxTokens <= 0 {
		el.Add(fmt.Errorf("chat.max_tokens must be positive"))
	}
	if c.Timeout <= 0 {
		el.Add(fmt.Errorf("chat.timeout must be positive"))
	}

	return el.Err()
}

func (c *AuthConfig) validate() error {
	el := errors.NewErrorList()

	if c.URL != "" {
		if _, err := url.ParseRequestURI(c.URL); err != nil {
			el.Add(fmt.Errorf("auth.url: %w", err))
		}
		if c.AnonKey == "" {
			el.Add(fmt.Errorf("auth.anon_key is required when auth.url is set"))
		}
	}
	if c.Timeout <= 0 {
		el.Add(fmt.Errorf("auth.timeout must be positive"))
	}

	return el.Err()
}

func (c *SessionConfig) validate() error {
	el := errors.NewErrorList()

	if c.Secret != "" && len(c.Secret) < 16 {
		el.Add(fmt.Errorf("session.secret must be at least 16 characters"))
	}
	if c.CookieName == "" {
		el.Add(fmt.Errorf("session.cookie_name is required"))
	}
	if c.MaxAge <= 0 {
		el.Add(fmt.Errorf("session.max_age must be positive"))
	}

	return el.Err()
}

// AuthEnabled reports whether an auth provider is configured
func (c *Config) AuthEnabled() bool {
	return c.Auth.URL != ""
}
