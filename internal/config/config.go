package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL,required"`

	TwilioAccountSID   string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken    string `env:"TWILIO_AUTH_TOKEN"`
	TwilioWhatsAppFrom string `env:"TWILIO_WHATSAPP_FROM"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`

	SessionTimeoutMinutes int    `env:"SESSION_TIMEOUT_MINUTES" envDefault:"30"`
	MaxHistoryLength      int    `env:"MAX_HISTORY_LENGTH" envDefault:"20"`
	Currency              string `env:"CURRENCY" envDefault:"ZMW"`

	// PublicURL is the externally visible base URL Twilio signs webhook
	// requests against.
	PublicURL string `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`

	PaymentBaseURL string `env:"PAYMENT_BASE_URL" envDefault:"https://pay.inxsource.com"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutMinutes) * time.Minute
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.SessionTimeoutMinutes <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT_MINUTES must be positive, got %d", c.SessionTimeoutMinutes)
	}
	if c.MaxHistoryLength <= 0 {
		return fmt.Errorf("MAX_HISTORY_LENGTH must be positive, got %d", c.MaxHistoryLength)
	}

	if isProduction {
		if c.TwilioAuthToken == "" {
			log.Warn().Msg("TWILIO_AUTH_TOKEN is empty in production: webhook signature verification disabled")
		}
		if c.GeminiAPIKey == "" {
			log.Warn().Msg("GEMINI_API_KEY is empty in production: AI replies will fall back to canned responses")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
