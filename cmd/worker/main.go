package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/retail-pos/internal/app"
	"github.com/noah-isme/retail-pos/internal/config"
	"github.com/noah-isme/retail-pos/internal/export"
	"github.com/noah-isme/retail-pos/internal/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(envOrDefault("LOG_FORMAT", "json"), envOrDefault("LOG_LEVEL", "info")).
		With().Str("component", "worker").Str("env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.NewWorker(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build worker")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		application.Close(shutdownCtx)
	}()

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis uri")
	}

	// concurrency 1 keeps page rendering strictly sequential
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 1,
		Queues:      map[string]int{export.QueueExports: 1},
		Logger:      asynqLogger{logger: logger},
	})

	mux := asynq.NewServeMux()
	mux.Handle(export.TypeBillExport, &export.Worker{Service: application.Exports, Logger: logger})

	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}
	logger.Info().Msg("export worker running")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")
	srv.Shutdown()
}

// asynqLogger adapts zerolog to the asynq.Logger interface.
type asynqLogger struct {
	logger zerolog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.logger.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.logger.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.logger.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.logger.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.logger.Fatal().Msg(fmt.Sprint(args...)) }

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
