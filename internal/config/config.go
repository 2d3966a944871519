// Package config loads stylegate settings: defaults, then an optional TOML
// file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/leofalp/stylegate/core/client/middleware"
	"github.com/leofalp/stylegate/core/cost"
	"github.com/leofalp/stylegate/internal/logging"
)

// Config holds all stylegate configuration.
type Config struct {
	Chat     ChatConfig     `toml:"chat"`
	Vision   VisionConfig   `toml:"vision"`
	Gateway  GatewayConfig  `toml:"gateway"`
	Extract  ExtractConfig  `toml:"extract"`
	Wardrobe WardrobeConfig `toml:"wardrobe"`
	Server   ServerConfig   `toml:"server"`
	Log      logging.Config `toml:"log"`

	// Pricing maps model names to USD rates for the cost metric.
	Pricing cost.PriceTable `toml:"pricing"`
}

// ChatConfig selects the OpenAI-compatible chat endpoint.
type ChatConfig struct {
	Model        string `toml:"model"`
	BaseURL      string `toml:"base_url"`
	APIKey       string `toml:"-"`
	SystemPrompt string `toml:"system_prompt"`

	// Headers are sent with every chat request, e.g. OpenRouter's
	// HTTP-Referer and X-Title attribution headers.
	Headers map[string]string `toml:"headers"`
}

// VisionConfig selects the local vision endpoint. It is disabled when
// BaseURL is empty, and image analysis then goes to the chat model.
type VisionConfig struct {
	BaseURL      string `toml:"base_url"`
	Model        string `toml:"model"`
	ResponsePath string `toml:"response_path"`
}

// GatewayConfig holds the middleware policy applied to every model call.
type GatewayConfig struct {
	TimeoutSeconds int     `toml:"timeout_seconds"`
	MaxRetries     int     `toml:"max_retries"`
	RatePerSecond  float64 `toml:"rate_per_second"`
	RateBurst      int     `toml:"rate_burst"`
	LogLevel       string  `toml:"log_level"` // minimal, standard or verbose
}

// ExtractConfig tunes the structured response extractor.
type ExtractConfig struct {
	Repair bool `toml:"repair"`
}

// WardrobeConfig tunes the wardrobe service.
type WardrobeConfig struct {
	Concurrency int    `toml:"concurrency"`
	PromptsDir  string `toml:"prompts_dir"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string `toml:"addr"`
	MaxBodyBytes    int64  `toml:"max_body_bytes"`
	ShutdownSeconds int    `toml:"shutdown_seconds"`
}

// DefaultConfig returns config with the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Chat: ChatConfig{
			Model:   "gpt-4o-mini",
			BaseURL: "https://api.openai.com/v1",
		},
		Vision: VisionConfig{
			Model:        "llava",
			ResponsePath: ".response",
		},
		Gateway: GatewayConfig{
			TimeoutSeconds: 60,
			MaxRetries:     3,
			RatePerSecond:  0,
			RateBurst:      1,
			LogLevel:       "standard",
		},
		Wardrobe: WardrobeConfig{
			Concurrency: 4,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			MaxBodyBytes:    10 << 20,
			ShutdownSeconds: 10,
		},
		Log: logging.DefaultConfig(),
	}
}

// Load builds the configuration. An explicit path must exist; with an empty
// path the standard locations are tried and a missing file is not an error.
// Environment variables override file values.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else {
		for _, p := range configPaths() {
			if _, err := os.Stat(p); err == nil {
				if _, err := toml.DecodeFile(p, &cfg); err != nil {
					return cfg, fmt.Errorf("parse config %s: %w", p, err)
				}
				break
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.Wardrobe.PromptsDir = expandHome(cfg.Wardrobe.PromptsDir)
	cfg.Log.FilePath = expandHome(cfg.Log.FilePath)

	return cfg, nil
}

func configPaths() []string {
	var paths []string

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "stylegate", "config.toml"))
	}

	home, _ := os.UserHomeDir()
	if home != "" {
		paths = append(paths, filepath.Join(home, ".config", "stylegate", "config.toml"))
	}

	return paths
}

func applyEnv(cfg *Config) error {
	setString := func(target *string, keys ...string) {
		for _, key := range keys {
			if v := os.Getenv(key); v != "" {
				*target = v
				return
			}
		}
	}

	setString(&cfg.Chat.APIKey, "OPENAI_API_KEY")
	setString(&cfg.Chat.BaseURL, "STYLEGATE_CHAT_BASE_URL", "OPENAI_API_BASE_URL")
	setString(&cfg.Chat.Model, "STYLEGATE_CHAT_MODEL")
	setString(&cfg.Vision.BaseURL, "STYLEGATE_VISION_BASE_URL", "VISION_BASE_URL")
	setString(&cfg.Vision.Model, "STYLEGATE_VISION_MODEL")
	setString(&cfg.Vision.ResponsePath, "STYLEGATE_VISION_RESPONSE_PATH")
	setString(&cfg.Server.Addr, "STYLEGATE_ADDR")
	setString(&cfg.Log.Format, "STYLEGATE_LOG_FORMAT")
	setString(&cfg.Log.FilePath, "STYLEGATE_LOG_FILE")
	cfg.Log.Level = logging.LevelFromEnv(cfg.Log.Level)

	var errs []error
	if v := os.Getenv("STYLEGATE_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("STYLEGATE_TIMEOUT_SECONDS: %w", err))
		}
		cfg.Gateway.TimeoutSeconds = n
	}
	if v := os.Getenv("STYLEGATE_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("STYLEGATE_MAX_RETRIES: %w", err))
		}
		cfg.Gateway.MaxRetries = n
	}
	if v := os.Getenv("STYLEGATE_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("STYLEGATE_CONCURRENCY: %w", err))
		}
		cfg.Wardrobe.Concurrency = n
	}
	if v := os.Getenv("STYLEGATE_REPAIR"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("STYLEGATE_REPAIR: %w", err))
		}
		cfg.Extract.Repair = b
	}

	return errors.Join(errs...)
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Chat.Model) == "" {
		errs = append(errs, errors.New("chat.model must not be empty"))
	}
	if c.Gateway.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("gateway.timeout_seconds must be positive, got %d", c.Gateway.TimeoutSeconds))
	}
	if c.Gateway.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("gateway.max_retries must not be negative, got %d", c.Gateway.MaxRetries))
	}
	if c.Gateway.RatePerSecond < 0 {
		errs = append(errs, fmt.Errorf("gateway.rate_per_second must not be negative, got %v", c.Gateway.RatePerSecond))
	}
	if _, err := middleware.ParseLogLevel(c.Gateway.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("gateway.log_level: %w", err))
	}
	if c.Wardrobe.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("wardrobe.concurrency must be positive, got %d", c.Wardrobe.Concurrency))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes))
	}
	if err := c.Pricing.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("pricing: %w", err))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
