package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

const (
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
	BackendMemory = "memory"

	defaultPredictTimeout = 10 * time.Second
	defaultDBPath         = "ledger.db"
	defaultMongoDatabase  = "fraudshield"
	defaultLedgerKey      = "history"
	defaultHealthAddr     = ":8080"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	PredictBaseURL string
	PredictTimeout time.Duration

	LedgerBackend string
	LedgerDBPath  string
	LedgerKey     string
	MongoURI      string
	MongoDatabase string

	LogLevel slog.Level

	DiscordBotToken  string
	DiscordChannelId string
	HealthAddr       string
}

// Load reads the process environment. The scoring service and Discord
// settings are optional here; commands that use them call RequirePredictor
// and RequireDiscord.
func Load() (*Config, error) {
	cfg := &Config{
		PredictBaseURL:   strings.TrimSpace(os.Getenv("PREDICT_BASE_URL")),
		LedgerBackend:    strings.ToLower(getEnv("LEDGER_BACKEND", BackendSQLite)),
		LedgerDBPath:     getEnv("LEDGER_DB_PATH", defaultDBPath),
		LedgerKey:        getEnv("LEDGER_KEY", defaultLedgerKey),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDatabase:    getEnv("MONGO_DATABASE", defaultMongoDatabase),
		DiscordBotToken:  os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordChannelId: os.Getenv("DISCORD_CHANNEL_ID"),
		HealthAddr:       getEnv("HEALTH_ADDR", defaultHealthAddr),
	}

	timeout, err := getEnvDuration("PREDICT_TIMEOUT", defaultPredictTimeout)
	if err != nil {
		return nil, err
	}
	cfg.PredictTimeout = timeout

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("%w: LOG_LEVEL: %w", ErrInvalidConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LedgerBackend {
	case BackendSQLite, BackendMemory:
	case BackendMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("%w: MONGO_URI is required for the mongo backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown LEDGER_BACKEND %q", ErrInvalidConfig, c.LedgerBackend)
	}
	return nil
}

// RequirePredictor reports a missing scoring service address. Only commands
// that score transactions need it.
func (c *Config) RequirePredictor() error {
	if c.PredictBaseURL == "" {
		return fmt.Errorf("%w: PREDICT_BASE_URL is not set", ErrInvalidConfig)
	}
	return nil
}

// RequireDiscord reports missing bot credentials.
func (c *Config) RequireDiscord() error {
	if c.DiscordBotToken == "" {
		return fmt.Errorf("%w: Bot token is not set", ErrInvalidConfig)
	}
	if c.DiscordChannelId == "" {
		return fmt.Errorf("%w: Channel ID is not set", ErrInvalidConfig)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %s=%q is not a positive duration", ErrInvalidConfig, key, v)
	}
	return d, nil
}
