package config_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/OmniNode-ai/omnibase-core-sub006/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(b byte) string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Repeat(string(b), 32)))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, config.StoreMemory, cfg.Store)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 30*time.Second, cfg.LockTTL)
	assert.Zero(t, cfg.StateTTL)
	assert.Empty(t, cfg.NATSURL)
	assert.NotNil(t, cfg.Logger())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("OMNIBASE_STORE", "redis")
	t.Setenv("OMNIBASE_REDIS_ADDR", "cache:6380")
	t.Setenv("OMNIBASE_STATE_TTL", "1h")
	t.Setenv("OMNIBASE_MASK_KEYS", "^password$,token")
	t.Setenv("OMNIBASE_WORKERS", "3")
	t.Setenv("OMNIBASE_LOG_FORMAT", "json")
	t.Setenv("OMNIBASE_DISTRIBUTED_LOCKING", "true")
	t.Setenv("OMNIBASE_ENCRYPTION_KEY", key('a'))
	t.Setenv("OMNIBASE_FALLBACK_KEYS", key('b'))

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StoreRedis, cfg.Store)
	assert.Equal(t, "cache:6380", cfg.RedisAddr)
	assert.Equal(t, time.Hour, cfg.StateTTL)
	assert.Equal(t, []string{"^password$", "token"}, cfg.MaskKeys)
	assert.Equal(t, 3, cfg.Workers)
	assert.True(t, cfg.DistributedLocking)

	active, fallback, err := cfg.EncryptionKeys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	require.Len(t, fallback, 1)
	assert.Equal(t, byte('b'), fallback[0][0])
}

func TestLoad_ParseError(t *testing.T) {
	t.Setenv("OMNIBASE_WORKERS", "many")

	_, err := config.Load()
	assert.ErrorContains(t, err, "parse env")
}

func TestValidate(t *testing.T) {
	valid, err := config.Load()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"unknown store", func(c *config.Config) { c.Store = "etcd" }, "unknown store"},
		{"unknown format", func(c *config.Config) { c.LogFormat = "xml" }, "unknown log format"},
		{"unknown level", func(c *config.Config) { c.LogLevel = "loud" }, "unknown log level"},
		{"no workers", func(c *config.Config) { c.Workers = 0 }, "workers must be positive"},
		{"no lock ttl", func(c *config.Config) { c.LockTTL = 0 }, "lock ttl"},
		{"locking without redis", func(c *config.Config) { c.DistributedLocking = true }, "requires the redis store"},
		{"bad base64", func(c *config.Config) { c.EncryptionKey = "%%%" }, "invalid base64"},
		{"short key", func(c *config.Config) { c.EncryptionKey = base64.StdEncoding.EncodeToString([]byte("short")) }, "32 bytes"},
		{"fallback without active", func(c *config.Config) { c.FallbackKeys = []string{key('c')} }, "require an encryption key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
