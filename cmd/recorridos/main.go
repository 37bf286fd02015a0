package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"recorridos/internal/backend"
	"recorridos/internal/cli"
	"recorridos/internal/config"
	apphttp "recorridos/internal/http"
	"recorridos/internal/log"
	"recorridos/internal/session"
)

const maxSessions = 1000

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig((*config.Config).Validate)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	sessions := session.NewStore(maxSessions, cfg.SessionTTL, cfg.CookieSecure)
	srv, err := apphttp.NewServer(":"+cfg.Port, res.Backend, sessions,
		apphttp.WithLogger(log.FromSlog(logger, log.ComponentHTTP)),
		apphttp.WithCaches(res.Caches),
		apphttp.WithTrustedProxies(cfg.TrustedProxies...))
	if err != nil {
		logger.Error("Failed to create HTTP server", "error", err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting recorridos server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
