// Package config loads the settings shared by the server and the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	LLM    LLMConfig    `yaml:"llm"`
	Image  ImageConfig  `yaml:"image"`
	Email  EmailConfig  `yaml:"email"`
	Client ClientConfig `yaml:"client"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr             string        `yaml:"addr"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxBodyBytes     int64         `yaml:"max_body_bytes"`
}

// LLMConfig selects the text model.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // openai, deepseek, gemini or mock
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
}

// ImageConfig selects the image model.
type ImageConfig struct {
	Provider string `yaml:"provider"` // openai, gemini or mock
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Size     string `yaml:"size"`
}

// EmailConfig configures delivery.
type EmailConfig struct {
	Provider string `yaml:"provider"` // resend or log
	APIKey   string `yaml:"api_key"`
	From     string `yaml:"from"`
	BaseURL  string `yaml:"base_url"`
}

// ClientConfig configures the CLI side.
type ClientConfig struct {
	ServerURL      string        `yaml:"server_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ImageWait      time.Duration `yaml:"image_wait"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// Load reads configuration from path (optional), a .env file in the working
// directory (optional) and the environment, in increasing precedence.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns the defaults every other source overrides.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:             ":8080",
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     150 * time.Second,
			IdleTimeout:      120 * time.Second,
			RequestTimeout:   120 * time.Second,
			GracefulShutdown: 10 * time.Second,
			MaxBodyBytes:     1 << 20,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Temperature: 0.8,
		},
		Image: ImageConfig{
			Provider: "openai",
			Size:     "1024x1024",
		},
		Email: EmailConfig{
			Provider: "resend",
			From:     "CivicHorizon <onboarding@resend.dev>",
		},
		Client: ClientConfig{
			ServerURL:      "http://localhost:8080",
			RequestTimeout: 150 * time.Second,
			ImageWait:      30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "deepseek", "gemini", "mock":
	default:
		return fmt.Errorf("invalid llm provider: %q", c.LLM.Provider)
	}
	switch c.Image.Provider {
	case "openai", "gemini", "mock":
	default:
		return fmt.Errorf("invalid image provider: %q", c.Image.Provider)
	}
	switch c.Email.Provider {
	case "resend", "log":
	default:
		return fmt.Errorf("invalid email provider: %q", c.Email.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature must be between 0 and 2")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server max_body_bytes must be positive")
	}
	if c.Client.ImageWait < 0 {
		return fmt.Errorf("client image_wait must not be negative")
	}
	if !strings.HasPrefix(c.Client.ServerURL, "http://") && !strings.HasPrefix(c.Client.ServerURL, "https://") {
		return fmt.Errorf("invalid client server_url: %q", c.Client.ServerURL)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("invalid log format: %q", c.Log.Format)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("IMAGE_PROVIDER"); v != "" {
		cfg.Image.Provider = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if cfg.LLM.APIKey == "" && cfg.LLM.Provider == "openai" {
			cfg.LLM.APIKey = v
		}
		if cfg.Image.APIKey == "" && cfg.Image.Provider == "openai" {
			cfg.Image.APIKey = v
		}
	}
	if v := os.Getenv("DEEPSEEK_API_KEY"); v != "" && cfg.LLM.APIKey == "" && cfg.LLM.Provider == "deepseek" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		if cfg.LLM.APIKey == "" && cfg.LLM.Provider == "gemini" {
			cfg.LLM.APIKey = v
		}
		if cfg.Image.APIKey == "" && cfg.Image.Provider == "gemini" {
			cfg.Image.APIKey = v
		}
	}
	if v := os.Getenv("RESEND_API_KEY"); v != "" && cfg.Email.APIKey == "" {
		cfg.Email.APIKey = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("VISION_SERVER_URL"); v != "" {
		cfg.Client.ServerURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}
