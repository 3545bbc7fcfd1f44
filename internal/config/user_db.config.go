package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DBMode enumerates how the store target was selected. Resolution happens
// once at startup, in precedence order, and is never re-evaluated per
// request.
type DBMode string

const (
	DBModeOverride DBMode = "explicit-override" // DATABASE_URL wins outright
	DBModeSocket   DBMode = "socket-path"       // managed-runtime unix socket
	DBModeHostPort DBMode = "host-port"         // plain TCP
)

type DBConfig struct {
	Mode DBMode
	DSN  string

	MaxConns int32
	MinConns int32
}

func loadDBConfig() DBConfig {
	cfg := DBConfig{
		MaxConns: int32(getEnvInt64("DB_MAX_CONNS", 20)),
		MinConns: int32(getEnvInt64("DB_MIN_CONNS", 2)),
	}

	user := getEnv("DB_USER", "postgres")
	pass := getEnv("DB_PASSWORD", "password")
	name := getEnv("DB_NAME", "users")

	switch {
	case os.Getenv("DATABASE_URL") != "":
		cfg.Mode = DBModeOverride
		cfg.DSN = os.Getenv("DATABASE_URL")

	case os.Getenv("INSTANCE_CONNECTION_NAME") != "":
		cfg.Mode = DBModeSocket
		cfg.DSN = fmt.Sprintf("postgres://%s:%s@/%s?host=/cloudsql/%s",
			user, pass, name, os.Getenv("INSTANCE_CONNECTION_NAME"))

	default:
		cfg.Mode = DBModeHostPort
		cfg.DSN = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			user, pass,
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			name)
	}

	return cfg
}

func ConnectDB(ctx context.Context, cfg DBConfig) (*pgxpool.Pool, error) {
	log.Printf("[DB] Connecting to database: mode=%s", cfg.Mode)

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse db config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := dbpool.Ping(pingCtx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbpool, nil
}
