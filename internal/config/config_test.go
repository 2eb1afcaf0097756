package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/mone/internal/model"
)

func setBase(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("APP_VARIANT", "moderated")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "60")
}

func TestLoadMemoryStore(t *testing.T) {
	setBase(t)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("EVENTS_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, model.Moderated, cfg.Variant)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, 60, cfg.AccessTTLMin)
	assert.True(t, cfg.EventsEnabled)
	assert.True(t, cfg.Development())
}

func TestLoadReportsAllMissingKeys(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("APP_VARIANT", "self_service")
	t.Setenv("STORE_DRIVER", "mysql")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_NAME", "")

	_, err := Load()
	require.Error(t, err)
	for _, key := range []string{"JWT_SECRET", "ACCESS_TOKEN_TTL_MIN", "DB_USER", "DB_HOST", "DB_PORT", "DB_NAME"} {
		assert.Contains(t, err.Error(), "missing "+key)
	}
}

func TestLoadRejectsUnknownVariant(t *testing.T) {
	setBase(t)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("APP_VARIANT", "anarchy")

	_, err := Load()
	assert.ErrorContains(t, err, "invalid APP_VARIANT")
}

func TestBrokerURLFallback(t *testing.T) {
	setBase(t)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://mq:5672/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "amqp://mq:5672/", cfg.BrokerURL)
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	rl := LoadRateLimitConfig()
	assert.Equal(t, 1, rl.Capacity)
	assert.Equal(t, 10*time.Second, rl.TTL)
	assert.Equal(t, "mone:rl", rl.Prefix)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "bogus")

	c := LoadCacheConfig()
	assert.True(t, c.Methods["GET"])
	assert.True(t, c.Methods["HEAD"])
	assert.Equal(t, time.Second, c.TTL)
}

func TestRedisOptions(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "2")

	o := RedisOptions()
	assert.Equal(t, "cache:6380", o.Addr)
	assert.Equal(t, 2, o.DB)
}
