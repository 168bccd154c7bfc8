package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "vellum/pkg/platform/strings"
)

// Server captures process-level configuration for the issuance service.
type Server struct {
	Addr          string
	JWTSigningKey string

	// FrontendBaseURL is the public site certificates deep-link into,
	// e.g. https://certificates.example.org. Links have no expiry.
	FrontendBaseURL string

	// BatchConcurrency bounds parallel recipients per batch. 1 keeps the
	// pipeline strictly sequential in input order.
	BatchConcurrency int

	DatabaseURL string

	Redis RedisConfig
	S3    S3Config
	SMTP  SMTPConfig
	Kafka KafkaConfig
}

// RedisConfig configures the optional record lookup cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// CacheTTL bounds how long an issuance record stays cached. Records
	// never change after issuance, so this only caps memory growth.
	CacheTTL time.Duration
}

// S3Config configures the artifact bucket. Endpoint is optional and enables
// path-style addressing for MinIO/LocalStack.
type S3Config struct {
	Bucket        string
	Region        string
	Endpoint      string
	Prefix        string
	PublicBaseURL string
}

// SMTPConfig configures the notification mail transport.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// KafkaConfig configures the audit event sink. Empty brokers disable Kafka
// and audit events stay on the in-process sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:             getEnv("VELLUM_ADDR", ":8080"),
		JWTSigningKey:    getEnv("VELLUM_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		FrontendBaseURL:  getEnv("VELLUM_FRONTEND_BASE_URL", "http://localhost:3000"),
		BatchConcurrency: getEnvInt("VELLUM_BATCH_CONCURRENCY", 1),
		DatabaseURL:      os.Getenv("VELLUM_DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("VELLUM_REDIS_URL"),
			PoolSize:     getEnvInt("VELLUM_REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("VELLUM_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("VELLUM_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("VELLUM_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("VELLUM_REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     getEnvDuration("VELLUM_REDIS_CACHE_TTL", 24*time.Hour),
		},
		S3: S3Config{
			Bucket:        os.Getenv("VELLUM_S3_BUCKET"),
			Region:        getEnv("VELLUM_S3_REGION", "us-east-1"),
			Endpoint:      os.Getenv("VELLUM_S3_ENDPOINT"),
			Prefix:        getEnv("VELLUM_S3_PREFIX", "certificates/"),
			PublicBaseURL: os.Getenv("VELLUM_S3_PUBLIC_BASE_URL"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("VELLUM_SMTP_HOST", "localhost"),
			Port:     getEnvInt("VELLUM_SMTP_PORT", 587),
			Username: os.Getenv("VELLUM_SMTP_USERNAME"),
			Password: os.Getenv("VELLUM_SMTP_PASSWORD"),
			From:     getEnv("VELLUM_SMTP_FROM", "certificates@example.org"),
		},
		Kafka: KafkaConfig{
			Brokers: platformstrings.DedupeAndTrim(strings.Split(os.Getenv("VELLUM_KAFKA_BROKERS"), ",")),
			Topic:   getEnv("VELLUM_KAFKA_AUDIT_TOPIC", "vellum.issuance.audit"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
