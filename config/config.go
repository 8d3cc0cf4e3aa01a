package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	History   HistoryConfig
	Chat      ChatConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string `env:"DICEPOOL_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"DICEPOOL_PORT" envDefault:"8080"`
	Mode string `env:"DICEPOOL_MODE" envDefault:"release"` // "debug", "release", "test"

	// ShutdownTimeout bounds how long in-flight requests may drain.
	ShutdownTimeout time.Duration `env:"DICEPOOL_SHUTDOWN_TIMEOUT" envDefault:"5s"`

	// AllowedOrigins feeds the CORS middleware. "*" allows every origin.
	AllowedOrigins []string `env:"DICEPOOL_ALLOWED_ORIGINS" envDefault:"*"`
}

// AuthConfig controls bearer token issuance and verification.
type AuthConfig struct {
	// Enabled toggles token checks on the dice endpoints.
	Enabled bool `env:"DICEPOOL_AUTH_ENABLED" envDefault:"true"`

	// SecretKey signs and verifies tokens. Login fails while it is empty.
	SecretKey string `env:"SECRET_KEY"`

	// TokenTTL is how long an issued token stays valid.
	TokenTTL time.Duration `env:"DICEPOOL_TOKEN_TTL" envDefault:"24h"`
}

// RateLimitConfig controls per-user rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per user.
	RequestsPerSecond float64 `env:"DICEPOOL_RATE_RPS" envDefault:"5"`

	// Burst is the maximum burst size per user.
	Burst int `env:"DICEPOOL_RATE_BURST" envDefault:"10"`
}

// HistoryConfig controls the per-user roll history.
type HistoryConfig struct {
	// MaxEntries is how many outcomes are kept per user.
	MaxEntries int `env:"DICEPOOL_HISTORY_MAX_ENTRIES" envDefault:"50"`

	// TTL drops outcomes older than this.
	TTL time.Duration `env:"DICEPOOL_HISTORY_TTL" envDefault:"1h"`
}

// ChatConfig controls the table chat.
type ChatConfig struct {
	// HistorySize is how many chat messages are replayed to clients.
	HistorySize int `env:"DICEPOOL_CHAT_HISTORY" envDefault:"100"`
}

// WebhookConfig controls roll notifications.
type WebhookConfig struct {
	// URL receives roll events. Empty disables delivery.
	URL string `env:"DICEPOOL_WEBHOOK_URL"`

	// Secret signs event bodies with HMAC-SHA256 when set.
	Secret string `env:"DICEPOOL_WEBHOOK_SECRET"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `env:"DICEPOOL_LOG_LEVEL" envDefault:"info"`
	Format string `env:"DICEPOOL_LOG_FORMAT" envDefault:"json"` // "json" or "text"
}

// Load reads configuration from environment variables with sane defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("DICEPOOL_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit must be positive (rps=%v burst=%d)", c.RateLimit.RequestsPerSecond, c.RateLimit.Burst)
	}
	if c.History.MaxEntries <= 0 {
		return fmt.Errorf("DICEPOOL_HISTORY_MAX_ENTRIES must be positive, got %d", c.History.MaxEntries)
	}
	if c.Chat.HistorySize <= 0 {
		return fmt.Errorf("DICEPOOL_CHAT_HISTORY must be positive, got %d", c.Chat.HistorySize)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("DICEPOOL_TOKEN_TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	return nil
}
