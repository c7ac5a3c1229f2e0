package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"mosques/internal/amqp"
	"mosques/internal/auth"
	"mosques/internal/cli"
	apphttp "mosques/internal/http"
	applog "mosques/internal/log"
	"mosques/internal/metrics"
	"mosques/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	res := cli.InitBackend(context.Background(), logger, cfg)

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	deps := services.Deps{
		Store:    res.Store,
		Tokens:   auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Metrics:  m,
		CacheTTL: cfg.CacheTTL,
	}

	// Without a broker the worker still rebuilds on its schedule.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, refresh events disabled", applog.FieldError, err)
		} else {
			amqpClient = c
			deps.Publisher = c
			logger.Info("AMQP publisher connected", "exchange", cfg.AMQPExchange)
		}
	}

	svc := services.New(deps)

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Services:       svc,
		Tokens:         deps.Tokens,
		Logger:         logger,
		Metrics:        m,
		TrustedProxies: cfg.TrustedProxies,
		LoginRateLimit: cfg.LoginRateLimit,
		Ready: func(ctx context.Context) error {
			_, err := res.Store.ListMaterials(ctx)
			return err
		},
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		svc.Close()
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if err := res.Close(); err != nil {
			logger.Error("Backend close error", applog.FieldError, err)
		}
	})

	logger.Info("Starting mosques server", "port", cfg.Port, applog.FieldBackend, res.Type)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
