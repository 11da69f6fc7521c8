// Package config reads the server and CLI settings from OMNIBASE_ prefixed environment variables.
package config

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/OmniNode-ai/omnibase-core-sub006/internal/logging"
	"github.com/caarlos0/env/v11"
)

// Prefix is prepended to every variable name.
const Prefix = "OMNIBASE_"

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config holds the settings shared by the serve and mcp commands.
type Config struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	Addr      string `env:"ADDR" envDefault:":8080"`

	ContractsDir string `env:"CONTRACTS_DIR" envDefault:"contracts"`

	Store     string `env:"STORE" envDefault:"memory"`
	StorePath string `env:"STORE_PATH" envDefault:".omnibase/state"`

	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisPrefix   string        `env:"REDIS_PREFIX" envDefault:"omnibase:snapshot:"`
	StateTTL      time.Duration `env:"STATE_TTL"`

	NATSURL           string `env:"NATS_URL"`
	NATSSubjectPrefix string `env:"NATS_SUBJECT_PREFIX" envDefault:"omnibase.intents"`

	EffectsFile   string        `env:"EFFECTS_FILE"`
	EffectTimeout time.Duration `env:"EFFECT_TIMEOUT" envDefault:"30s"`

	EncryptionKey      string        `env:"ENCRYPTION_KEY"`
	FallbackKeys       []string      `env:"FALLBACK_KEYS" envSeparator:","`
	MaskKeys           []string      `env:"MASK_KEYS" envSeparator:","`
	Workers            int           `env:"WORKERS" envDefault:"8"`
	LockTTL            time.Duration `env:"LOCK_TTL" envDefault:"30s"`
	DistributedLocking bool          `env:"DISTRIBUTED_LOCKING"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that the struct tags cannot express.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreFile, StoreRedis, StoreSQLite:
	default:
		return fmt.Errorf("unknown store %q (want memory, file, redis or sqlite)", c.Store)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.LockTTL <= 0 {
		return fmt.Errorf("lock ttl must be positive, got %s", c.LockTTL)
	}
	if c.DistributedLocking && c.Store != StoreRedis {
		return fmt.Errorf("distributed locking requires the redis store")
	}
	if _, _, err := c.EncryptionKeys(); err != nil {
		return err
	}
	return nil
}

// EncryptionKeys decodes the active and fallback keys.
// The active key is nil when encryption is disabled.
func (c Config) EncryptionKeys() ([]byte, [][]byte, error) {
	if c.EncryptionKey == "" {
		if len(c.FallbackKeys) > 0 {
			return nil, nil, fmt.Errorf("fallback keys require an encryption key")
		}
		return nil, nil, nil
	}
	active, err := decodeKey(c.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("encryption key: %w", err)
	}
	fallback := make([][]byte, 0, len(c.FallbackKeys))
	for i, raw := range c.FallbackKeys {
		k, err := decodeKey(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("fallback key %d: %w", i, err)
		}
		fallback = append(fallback, k)
	}
	return active, fallback, nil
}

func decodeKey(raw string) ([]byte, error) {
	k, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	if len(k) != 32 {
		return nil, fmt.Errorf("must decode to 32 bytes, got %d", len(k))
	}
	return k, nil
}

// Logger builds the process logger from LogLevel and LogFormat.
func (c Config) Logger() *slog.Logger {
	level, _ := logging.ParseLevel(c.LogLevel)
	return logging.NewWriter(os.Stderr, level, c.LogFormat == "json")
}
