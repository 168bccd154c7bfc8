package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 1, cfg.BatchConcurrency)
	assert.Equal(t, "certificates/", cfg.S3.Prefix)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "vellum.issuance.audit", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("VELLUM_ADDR", ":9999")
	t.Setenv("VELLUM_BATCH_CONCURRENCY", "4")
	t.Setenv("VELLUM_REDIS_DIAL_TIMEOUT", "250ms")
	t.Setenv("VELLUM_KAFKA_BROKERS", "broker-1:9092, broker-2:9092,")

	cfg := FromEnv()

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 4, cfg.BatchConcurrency)
	assert.Equal(t, 250*time.Millisecond, cfg.Redis.DialTimeout)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
}

func TestFromEnvBadNumbersFallBack(t *testing.T) {
	t.Setenv("VELLUM_BATCH_CONCURRENCY", "not-a-number")
	t.Setenv("VELLUM_SMTP_PORT", "")

	cfg := FromEnv()

	assert.Equal(t, 1, cfg.BatchConcurrency)
	assert.Equal(t, 587, cfg.SMTP.Port)
}
