package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"user-service/pkg/jwtutil"
)

type AppConfig struct {
	HTTPAddr string

	RedisAddr string
	RedisPass string

	// Identity provider boundary: the service's registered client ID is the
	// expected audience on every inbound assertion.
	GoogleClientID string

	// Session token signing.
	JWTSecret  string
	JWTIssuer  string
	SessionTTL time.Duration

	// Event bus; empty brokers or topic disables publishing.
	KafkaBrokers []string
	EventsTopic  string

	MachineID int64

	DB DBConfig
}

// Load resolves all configuration once at startup. Absence of the signing
// secret or the identity-provider client ID is a fatal configuration error,
// not a per-request one.
func Load() (AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Users: No .env file found, relying on system env vars")
	}

	cfg := AppConfig{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8000"),
		RedisAddr:      getEnv("REDIS_ADDR", "redis:6379"),
		RedisPass:      getEnv("REDIS_PASS", ""),
		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		JWTIssuer:      getEnv("JWT_ISSUER", "user-service"),
		SessionTTL:     getEnvDuration("SESSION_TTL", jwtutil.DefaultTTL),
		KafkaBrokers:   getEnvSlice("KAFKA_BROKERS", nil),
		EventsTopic:    getEnv("USER_EVENTS_TOPIC", "user.events"),
		MachineID:      getEnvInt64("MACHINE_ID", 1),
		DB:             loadDBConfig(),
	}

	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.GoogleClientID == "" {
		return cfg, fmt.Errorf("GOOGLE_CLIENT_ID is required")
	}

	return cfg, nil
}

// EventsEnabled reports whether a bus target is configured at all.
func (c AppConfig) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0 && c.EventsTopic != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}
