package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/zoneweaver/internal/health"
	"gitlab.bluewillows.net/root/zoneweaver/internal/httpreq"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the httpreq webhook server",
		Long: `Run zoneweaver as an httpreq webhook server.

ACME clients POST challenge requests to /present and /cleanup with a
JSON body of the form {"fqdn": "...", "value": "..."}. A separate
health server exposes /health, /ready, and Prometheus /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, provider, err := setup()
	if err != nil {
		return err
	}
	logger := slog.Default()

	logger.Info("zoneweaver starting",
		slog.String("version", version),
		slog.String("build_date", buildDate),
		slog.Int("webhook_port", cfg.WebhookPort),
		slog.Int("health_port", cfg.HealthPort),
	)

	var webhookOpts []httpreq.Option
	webhookOpts = append(webhookOpts, httpreq.WithLogger(logger))
	if cfg.WebhookUsername != "" || cfg.WebhookPassword != "" {
		webhookOpts = append(webhookOpts, httpreq.WithBasicAuth(cfg.WebhookUsername, cfg.WebhookPassword))
	}
	webhookServer := httpreq.New(cfg.WebhookPort, provider, webhookOpts...)

	healthServer := health.New(cfg.HealthPort, health.WithLogger(logger))
	healthServer.RegisterChecker("provider:zonedns", provider.HealthCheck)

	if err := healthServer.Start(); err != nil {
		return fmt.Errorf("starting health server: %w", err)
	}
	if err := webhookServer.Start(); err != nil {
		return fmt.Errorf("starting webhook server: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("received shutdown signal", slog.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := webhookServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("webhook server shutdown error", slog.String("error", err.Error()))
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("health server shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("zoneweaver shutdown complete")
	return nil
}
