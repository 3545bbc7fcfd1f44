package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"user-service/internal/config"
	"user-service/internal/handler"
	"user-service/internal/repository"
	"user-service/internal/router"
	oauth2svc "user-service/internal/service/oauth2"
	"user-service/internal/usecase"
	"user-service/pkg/id"
	"user-service/pkg/jwtutil"
	kafkapkg "user-service/pkg/kafka"
	"user-service/pkg/middleware"
)

func NewServer(cfg config.AppConfig) *http.Server {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	db, err := config.ConnectDB(context.Background(), cfg.DB)
	if err != nil {
		log.Fatalf("failed to connect to DB: %v", err)
	}
	logger.Info("database connected",
		zap.String("mode", string(cfg.DB.Mode)),
		zap.Int32("max_conns", cfg.DB.MaxConns),
	)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Warn("redis unreachable, rate limiting fails open", zap.Error(err))
	}

	sf, err := id.NewSnowflake(cfg.MachineID)
	if err != nil {
		log.Fatalf("failed to init snowflake: %v", err)
	}

	// Immutable after startup: the signing secret and the bus client are the
	// only state shared between requests.
	jwtGen := jwtutil.NewGenerator([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.SessionTTL)
	jwtVerifier := jwtutil.NewVerifier([]byte(cfg.JWTSecret), cfg.JWTIssuer)

	var producer usecase.UserEventProducer
	if cfg.EventsEnabled() {
		producer, err = kafkapkg.NewUserEventProducer(cfg.KafkaBrokers, cfg.EventsTopic, logger)
		if err != nil {
			log.Fatalf("failed to create Kafka producer: %v", err)
		}
		logger.Info("kafka producer initialized",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.EventsTopic),
		)
	} else {
		producer = kafkapkg.NewNoopProducer(logger)
		logger.Info("event bus not configured, publishes are no-ops")
	}

	userRepo := repository.NewUserRepository(db, logger)
	verifier := oauth2svc.NewGoogleVerifier(cfg.GoogleClientID)
	userUC := usecase.NewUserUsecase(userRepo, sf, verifier, jwtGen, producer, logger)

	userHandler := handler.NewUserHandler(userUC, logger)
	auth := middleware.NewAuthMiddleware(jwtVerifier)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("shutdown signal received")

		if err := producer.Close(); err != nil {
			logger.Warn("error closing producer", zap.Error(err))
		}
		if err := rdb.Close(); err != nil {
			logger.Warn("error closing redis", zap.Error(err))
		}
		db.Close()

		logger.Info("graceful shutdown complete")
		_ = logger.Sync()

		time.Sleep(100 * time.Millisecond)
		os.Exit(0)
	}()

	r := chi.NewRouter()
	router.SetupRoutes(r, userHandler, auth, rdb)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}
}
