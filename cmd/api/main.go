// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Farmo HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire domain services and HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/farmo/internal/api"
	"github.com/taibuivan/farmo/internal/platform/clock"
	"github.com/taibuivan/farmo/internal/platform/config"
	"github.com/taibuivan/farmo/internal/platform/constants"
	"github.com/taibuivan/farmo/internal/platform/migration"
	pgstore "github.com/taibuivan/farmo/internal/platform/postgres"
	redisstore "github.com/taibuivan/farmo/internal/platform/redis"
	"github.com/taibuivan/farmo/internal/platform/sec"
	"github.com/taibuivan/farmo/internal/users/activity"
	"github.com/taibuivan/farmo/internal/users/auth"
	"github.com/taibuivan/farmo/internal/users/identity"
	"github.com/taibuivan/farmo/internal/users/otp"
	"github.com/taibuivan/farmo/internal/users/session"
	"github.com/taibuivan/farmo/internal/wallet"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "farmo"))
	slog.SetDefault(log)

	log.Info("[Farmo] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "farmo"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	hasher := sec.NewHasher(0)
	clk := clock.System{}

	userRepository := identity.NewRepository(pool)
	identityService := identity.NewService(userRepository, hasher)
	identityHandler := identity.NewHandler(identityService)

	activityRecorder := activity.NewRecorder(activity.NewStore(pool), log)
	attemptLimiter := session.NewAttemptLimiter(rdb)

	tokenRepository := session.NewTokenRepository(pool)
	sessionService := session.NewService(tokenRepository, userRepository, hasher, attemptLimiter, activityRecorder, clk)
	sessionGuard := session.NewGuard(tokenRepository, userRepository, clk)

	var passcodeSender otp.Sender = otp.NewLogSender(log)
	if cfg.SMTPHost != "" {
		passcodeSender = otp.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	}
	passcodeService := otp.NewService(otp.NewRepository(pool), attemptLimiter, passcodeSender, clk)

	authService := auth.NewService(userRepository, sessionService, passcodeService, hasher)
	authHandler := auth.NewHandler(authService, sessionService)

	walletService := wallet.NewService(wallet.NewRepository(pool), hasher, passcodeService, userRepository)
	walletHandler := wallet.NewHandler(walletService)

	// ── 8. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Identity:  identityHandler,
		Wallet:    walletHandler,
	}

	// The server context must outlive startup: background goroutines inside
	// the middleware chain (rate limiter cleanup) watch it for shutdown.
	server := api.NewServer(context.Background(), cfg, log, sessionGuard, handlers)

	// ── 9. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
