package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/congo-pay/vault/internal/config"
	"github.com/congo-pay/vault/internal/infra"
	"github.com/congo-pay/vault/internal/logging"
	"github.com/congo-pay/vault/internal/routes"
	"github.com/congo-pay/vault/internal/server"
	"github.com/congo-pay/vault/internal/settlement"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, slog.String("service", cfg.AppName), slog.String("env", cfg.Env))
	ctx := context.Background()
	deps := routes.Deps{Cfg: cfg, Logger: logger}

	if cfg.DatabaseURL != "" {
		db, err := infra.NewLedgerPool(ctx, infra.LedgerPoolOptions{
			URL:         cfg.DatabaseURL,
			AppName:     cfg.AppName,
			MaxConns:    cfg.DBMaxConns,
			LockTimeout: cfg.DBLockTimeout,
		})
		if err != nil {
			logger.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		deps.DB = db
	}

	if cfg.RedisURL != "" {
		cache, err := infra.NewCache(ctx, infra.CacheOptions{URL: cfg.RedisURL, Timeout: cfg.RedisTimeout})
		if err != nil {
			logger.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
		deps.Cache = cache
	}

	if cfg.NATSURL != "" {
		nc, js, err := infra.NewNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			logger.Error("connect nats", "error", err)
			os.Exit(1)
		}
		defer nc.Drain() // nolint:errcheck
		if err := settlement.EnsureStream(ctx, js); err != nil {
			logger.Error("ensure intent stream", "error", err)
			os.Exit(1)
		}
		deps.NATS = nc
		deps.JetStream = js
	} else {
		logger.Warn("NATS_URL not set; settlement intents are only logged")
	}

	srv, err := server.New(deps)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
