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

	"credentials_service/internal/auth"
	"credentials_service/internal/config"
	httpserver "credentials_service/internal/http_server"
	"credentials_service/internal/lib/jwt"
	sl "credentials_service/internal/lib/logger"
	"credentials_service/internal/lib/password"
	"credentials_service/internal/metrics"
	"credentials_service/internal/rabbitmq"
	"credentials_service/internal/storage/memory"
	"credentials_service/internal/storage/postgres"
	"credentials_service/internal/storage/redis"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

type credentialStorage interface {
	auth.UserProvider
	auth.CredentialStore
}

func main() {
	cfg := config.MustLoad(config.Path())

	log := setupLogger(cfg.Env)

	log.Info("starting credentials service", slog.String("env", cfg.Env), slog.String("storage", cfg.Storage))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("service stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("Main service stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	var store credentialStorage

	switch cfg.Storage {
	case config.StorageMemory:
		log.Warn("using in-memory storage, credentials are lost on restart")
		store = memory.New()
	default:
		pg, err := postgres.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer pg.Close()

		store = pg
	}

	issuer, err := jwt.NewIssuer(cfg.Tokens.SigningSecret)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []auth.Option{auth.WithMetrics(metrics.New(reg))}

	if cfg.Redis.Enabled {
		guard, err := redis.New(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Tokens.ReplayMarkerTTL)
		if err != nil {
			return err
		}
		defer guard.Close()

		opts = append(opts, auth.WithReplayGuard(guard))
	}

	if cfg.RabbitMQ.Enabled {
		msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return err
		}
		defer msgBroker.Close()

		opts = append(opts, auth.WithPublisher(msgBroker))
	}

	authService := auth.New(log, store, store, issuer, password.Bcrypt{}, opts...)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      httpserver.NewRouter(log, authService, issuer, reg),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serveErr := make(chan error, 1)

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", sl.Err(err))
		return err
	}

	log.Info("Server stopped gracefully")

	return nil
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
