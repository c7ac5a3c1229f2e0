package main

import (
	"context"
	"os"
	"time"

	"mosques/internal/amqp"
	"mosques/internal/auth"
	"mosques/internal/cli"
	applog "mosques/internal/log"
	"mosques/internal/services"
	"mosques/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(applog.ComponentWorker)
	logger.Info("Starting mosques-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	res := cli.InitBackend(context.Background(), logger, cfg)
	defer res.Close()

	svc := services.New(services.Deps{
		Store:    res.Store,
		Tokens:   auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		CacheTTL: cfg.CacheTTL,
	})
	defer svc.Close()

	var consumer worker.Consumer
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		consumer = client
	} else {
		logger.Info("No AMQP_URL set, refreshing on schedule only", "interval", cfg.ReportsRefreshInterval)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	w := worker.NewRefreshWorker(svc.Reports, cfg.ReportsRefreshInterval, logger)
	if err := w.Run(ctx, consumer); err != nil {
		logger.Error("Worker stopped", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
