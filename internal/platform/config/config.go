package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr string

	// PostgresDSN enables the postgres stores; empty keeps everything
	// in memory.
	PostgresDSN string

	// Redis caches requirement sets when configured.
	Redis RedisConfig

	// Kafka mirrors audit events to a broker when brokers are set.
	KafkaBrokers    []string
	KafkaAuditTopic string

	// ExtractorURL points at the AI extraction service; empty disables
	// the document processing pipeline.
	ExtractorURL string

	// SES sends compliance communications when a sender is set.
	SESRegion string
	SESSender string

	// MinConfidence floors clean passes at review when extraction
	// confidence falls below it.
	MinConfidence float64

	// RequirementsCacheTTL bounds how stale cached requirement sets go.
	RequirementsCacheTTL time.Duration

	// ExceptionSweepInterval is how often active exceptions are checked
	// for expiry.
	ExceptionSweepInterval time.Duration
}

// RedisConfig captures Redis connection settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("CERTGUARD_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	cfg := Server{
		Addr:        addr,
		PostgresDSN: os.Getenv("CERTGUARD_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("CERTGUARD_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		ExtractorURL:           os.Getenv("CERTGUARD_EXTRACTOR_URL"),
		KafkaAuditTopic:        envDefault("CERTGUARD_KAFKA_AUDIT_TOPIC", "certguard.audit"),
		SESRegion:              envDefault("CERTGUARD_SES_REGION", "ap-southeast-2"),
		SESSender:              os.Getenv("CERTGUARD_SES_SENDER"),
		MinConfidence:          envFloat("CERTGUARD_MIN_CONFIDENCE", 0.7),
		RequirementsCacheTTL:   envDuration("CERTGUARD_REQUIREMENTS_CACHE_TTL", 5*time.Minute),
		ExceptionSweepInterval: envDuration("CERTGUARD_EXCEPTION_SWEEP_INTERVAL", time.Hour),
	}

	if brokers := os.Getenv("CERTGUARD_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	return cfg
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
