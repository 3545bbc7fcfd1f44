package main

import (
	"log"
	"net/http"

	"user-service/internal/config"
	"user-service/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[FATAL] invalid configuration: %v", err)
	}

	srv := server.NewServer(cfg)

	log.Printf("Users HTTP server listening at %s", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("failed to serve: %v", err)
	}
}
