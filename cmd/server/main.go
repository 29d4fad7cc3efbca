package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/portfolio-comments-api/internal/api"
	"github.com/portfolio-comments-api/internal/config"
	"github.com/portfolio-comments-api/internal/database"
	"github.com/portfolio-comments-api/internal/metrics"
	"github.com/portfolio-comments-api/internal/ratelimit"
	"github.com/portfolio-comments-api/internal/repository"
	"github.com/portfolio-comments-api/internal/service"
	"github.com/portfolio-comments-api/pkg/logger"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log := logger.New("info", os.Getenv("ENV"))
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Env)
	log.Info().Msg("Starting portfolio comments API server...")

	// Initialize JSON store
	db, err := database.New(&cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open data directory")
	}

	// Initialize repositories
	repos := repository.New(db)

	// Initialize services
	m := metrics.New()
	services, err := service.NewServices(repos, cfg, log, m)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	services.Health = db.HealthCheck

	ctx := context.Background()
	if err := services.Auth.EnsureAuth(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap admin credentials")
	}
	if err := services.Auth.LoadSessions(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to restore admin sessions")
	}

	ipLimiter, closeLimiter := newIPLimiter(cfg, log)
	defer closeLimiter()

	// Initialize router
	router := api.NewRouter(services, cfg, log, m, ipLimiter)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("data_dir", db.Dir()).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}

// newIPLimiter picks the per-IP limiter for /api/comments: Redis fixed windows when
// REDIS_ADDR is set, otherwise an in-process sliding window.
func newIPLimiter(cfg *config.Config, log zerolog.Logger) (ratelimit.Limiter, func()) {
	if cfg.Redis.Addr != "" {
		limiter, err := ratelimit.NewRedisFixedWindowLimiter(
			cfg.Redis.Addr,
			cfg.Redis.Password,
			cfg.Redis.Prefix,
			cfg.Comments.RateMax,
			cfg.Comments.RateWindow,
		)
		if err == nil {
			log.Info().Str("redis_addr", cfg.Redis.Addr).Msg("Per-IP rate limit backed by Redis")
			return limiter, func() {
				if err := limiter.Close(); err != nil {
					log.Warn().Err(err).Msg("Failed to close Redis limiter")
				}
			}
		}
		log.Error().Err(err).Msg("Redis limiter unavailable, falling back to in-memory")
	}

	limiter, err := ratelimit.NewSlidingWindowLimiter(cfg.Comments.RateMax, cfg.Comments.RateWindow)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create rate limiter")
	}
	return limiter, func() {}
}
