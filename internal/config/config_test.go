package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("PRICING_CACHE_TTL", "")
	t.Setenv("NOTIFIER_WORKERS", "")
	t.Setenv("POSTGRES_MAX_CONNS", "")

	cfg := Load()
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, time.Minute, cfg.PricingCacheTTL)
	assert.Equal(t, 4, cfg.Notification.Workers)
	assert.True(t, cfg.MigrateOnStart)
	assert.Equal(t, int32(8), cfg.PostgresConns)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE", " Memory ")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("PRICING_CACHE_TTL", "30s")
	t.Setenv("NOTIFIER_WORKERS", "-3")
	t.Setenv("MIGRATE_ON_START", "off")
	t.Setenv("ADMIN_EMAIL", " ops@example.com ")

	cfg := Load()
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Second, cfg.PricingCacheTTL)
	assert.Equal(t, 4, cfg.Notification.Workers)
	assert.False(t, cfg.MigrateOnStart)
	assert.Equal(t, "ops@example.com", cfg.Notification.AdminEmail)
}
