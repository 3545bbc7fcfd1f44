package router

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"user-service/internal/handler"
	"user-service/pkg/middleware"
)

func SetupRoutes(
	r chi.Router,
	h *handler.UserHandler,
	auth *middleware.AuthMiddleware,
	rdb *redis.Client,
) chi.Router {
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimiter(rdb, 100, time.Minute, time.Minute, "global_users"))

	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Get("/health/{path_echo}", h.HealthWithPath)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		// ---------------- Public ----------------
		api.Group(func(pub chi.Router) {
			pub.Use(middleware.RateLimiter(rdb, 10, 30*time.Second, 30*time.Second, "user_login"))
			pub.Post("/auth/google", h.GoogleAuthHandler)
		})

		api.Post("/users", h.CreateUser)
		api.Get("/users", h.ListUsers)
		api.Get("/users/{id}", h.GetUser)

		// ---------------- Authenticated ----------------
		api.Group(func(g chi.Router) {
			g.Use(auth.RequireAuth())
			g.Patch("/users/{id}", h.UpdateUser)
			g.Delete("/users/{id}", h.DeleteUser)
		})
	})

	return r
}
