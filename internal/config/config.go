// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AuthConfig struct {
	Secret     string        `yaml:"secret"`
	CookieName string        `yaml:"cookie_name"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"` // empty disables the transcript archive
}

type StoreConfig struct {
	RetentionLimit int `yaml:"retention_limit"` // max records kept per user
	ProbeBytes     int `yaml:"probe_bytes"`     // advisory capacity probe size
}

type UploadConfig struct {
	MaxBytes       int64         `yaml:"max_bytes"`
	RateLimit      int           `yaml:"rate_limit"` // uploads per user per window
	RateWindow     time.Duration `yaml:"rate_window"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type ProvidersConfig struct {
	HuggingFaceKey    string        `yaml:"huggingface_key"`
	HuggingFaceModels []string      `yaml:"huggingface_models"`
	AssemblyAIKey     string        `yaml:"assemblyai_key"`
	OpenAIKey         string        `yaml:"openai_key"`
	OpenAIModel       string        `yaml:"openai_model"`
	GeminiKey         string        `yaml:"gemini_key"`
	GeminiModel       string        `yaml:"gemini_model"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	PollAttempts      int           `yaml:"poll_attempts"`
	DemoFallback      *bool         `yaml:"demo_fallback"` // nil means enabled
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"` // empty disables at-rest encryption
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Redis     RedisConfig     `yaml:"redis"`
	Database  DatabaseConfig  `yaml:"database"`
	Store     StoreConfig     `yaml:"store"`
	Upload    UploadConfig    `yaml:"upload"`
	Providers ProvidersConfig `yaml:"providers"`
	Security  SecurityConfig  `yaml:"security"`

	Runtime RuntimeConfig `yaml:"-"`
}

// DemoFallbackEnabled reports the uniform exhaustion policy: placeholder
// success when enabled, hard exhaustion error when disabled.
func (p ProvidersConfig) DemoFallbackEnabled() bool {
	return p.DemoFallback == nil || *p.DemoFallback
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "session"
	}
	if cfg.Auth.SessionTTL <= 0 {
		cfg.Auth.SessionTTL = 24 * time.Hour
	}
	if cfg.Store.RetentionLimit <= 0 {
		cfg.Store.RetentionLimit = 10
	}
	if cfg.Store.ProbeBytes <= 0 {
		cfg.Store.ProbeBytes = 100 * 1024
	}
	if cfg.Upload.MaxBytes <= 0 {
		cfg.Upload.MaxBytes = 25 * 1024 * 1024
	}
	if cfg.Upload.RateLimit <= 0 {
		cfg.Upload.RateLimit = 10
	}
	if cfg.Upload.RateWindow <= 0 {
		cfg.Upload.RateWindow = time.Minute
	}
	if cfg.Upload.RequestTimeout <= 0 {
		// Must outlive the secondary provider's poll ceiling; the request
		// deadline is the only way to abort that loop.
		cfg.Upload.RequestTimeout = 6 * time.Minute
	}
	if len(cfg.Providers.HuggingFaceModels) == 0 {
		cfg.Providers.HuggingFaceModels = []string{
			"openai/whisper-large-v3",
			"openai/whisper-large-v3-turbo",
			"distil-whisper/distil-large-v3",
		}
	}
	if cfg.Providers.OpenAIModel == "" {
		cfg.Providers.OpenAIModel = "whisper-1"
	}
	if cfg.Providers.GeminiModel == "" {
		cfg.Providers.GeminiModel = "gemini-2.0-flash"
	}
	if cfg.Providers.PollInterval <= 0 {
		cfg.Providers.PollInterval = 5 * time.Second
	}
	if cfg.Providers.PollAttempts <= 0 {
		cfg.Providers.PollAttempts = 60
	}

	// Minimal validation
	if cfg.Auth.Secret == "" {
		return nil, errors.New("auth.secret is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if k := cfg.Security.EncryptionKey; k != "" {
		if n := len(k); n != 16 && n != 24 && n != 32 {
			return nil, fmt.Errorf("security.encryption_key must be 16, 24, or 32 bytes; got %d", n)
		}
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}
