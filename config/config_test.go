package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gosupply/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "segredo")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg := config.LoadConfig()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, config.StorageMemory, cfg.StorageDriver)
	assert.Equal(t, 5*time.Second, cfg.DBTimeout)
	assert.Equal(t, 24.0, cfg.AutoCloseSLAHours)
	assert.Equal(t, 300*time.Second, cfg.AutoCloseInterval)
	assert.Equal(t, "UTC", cfg.BusinessTimezone)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "segredo")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/gosupply?sslmode=disable")
	t.Setenv("AUTO_CLOSE_SLA_HOURS", "1.5")
	t.Setenv("AUTO_CLOSE_INTERVAL_SEC", "30")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, ,kafka-2:9092")
	t.Setenv("BUSINESS_TIMEZONE", "America/Sao_Paulo")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "abc")

	cfg := config.LoadConfig()

	assert.Equal(t, "postgres://localhost/gosupply?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, 1.5, cfg.AutoCloseSLAHours)
	assert.Equal(t, 30*time.Second, cfg.AutoCloseInterval)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "America/Sao_Paulo", cfg.BusinessTimezone)
	assert.Equal(t, 100, cfg.RateLimitMaxRequests, "valor inválido cai no padrão")
}

func TestLoadConfig_NonPositiveAutoCloseValuesUseDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "segredo")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("AUTO_CLOSE_INTERVAL_SEC", "0")
	t.Setenv("AUTO_CLOSE_LOCK_TTL_SEC", "-10")
	t.Setenv("AUTO_CLOSE_SLA_HOURS", "-2")

	cfg := config.LoadConfig()

	assert.Equal(t, 300*time.Second, cfg.AutoCloseInterval)
	assert.Equal(t, 120*time.Second, cfg.AutoCloseLockTTL)
	assert.Equal(t, 24.0, cfg.AutoCloseSLAHours)
}
