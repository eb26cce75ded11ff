package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"credentials_service/internal/config"
	sl "credentials_service/internal/lib/logger"
	"credentials_service/internal/models"
	"credentials_service/internal/rabbitmq"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad(config.Path())
	log := setupLogger(cfg.Env)

	log.Info("Starting events_audit", slog.String("env", cfg.Env))

	if cfg.RabbitMQ.URL == "" {
		log.Error("rabbitmq.url is not configured")
		os.Exit(1)
	}

	startConsumer(ctx, cfg, log)
}

func startConsumer(ctx context.Context, cfg *config.Config, log *slog.Logger) {
	r, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	if err != nil {
		log.Error("failed to init rabbitmq", sl.Err(err))
		return
	}
	defer r.Close()

	done := make(chan struct{})

	go func() {
		defer close(done)

		err := r.StartReading(ctx, cfg.RabbitMQ.Queue, auditEvent(log))
		if err != nil {
			log.Error("failed to read events", sl.Err(err))
			return
		}
	}()

	log.Info("consumer successfully started", slog.String("queue", cfg.RabbitMQ.Queue))

	select {
	case <-ctx.Done():
		log.Info("shutting down consumer...")
		<-done
	case <-done:
		log.Info("consumer finished the work")
	}

	log.Info("service gracefully stopped")
}

// auditEvent пишет событие жизненного цикла credential в лог
func auditEvent(log *slog.Logger) func(models.Event) error {
	return func(e models.Event) error {
		log.Info("credential event",
			slog.String("event_id", e.ID),
			slog.String("type", e.Type),
			slog.String("uid", e.UserID),
			slog.Time("occurred_at", e.OccurredAt),
		)

		return nil
	}
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
