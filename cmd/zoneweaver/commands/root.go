// Package commands implements the zoneweaver CLI.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/zoneweaver/internal/config"
	"gitlab.bluewillows.net/root/zoneweaver/internal/metrics"
	"gitlab.bluewillows.net/root/zoneweaver/pkg/dnscheck"
	"gitlab.bluewillows.net/root/zoneweaver/providers/zonedns"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zoneweaver",
		Short: "ACME DNS-01 challenge records in Zone.eu hosted DNS",
		Long: `zoneweaver publishes and removes ACME DNS-01 challenge TXT records
through the Zone.eu DNS API.

Configuration comes from ZONEWEAVER_* environment variables or a config
file named by ZONEWEAVER_CONFIG_FILE. The API key can be given directly,
read from a file, or stored in the OS keyring via "zoneweaver login".

Quick start:
  zoneweaver login                                     # Store the API key
  zoneweaver add _acme-challenge.example.com <value>   # Publish a challenge
  zoneweaver remove _acme-challenge.example.com <value>
  zoneweaver serve                                     # httpreq webhook mode`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(addCmd())
	cmd.AddCommand(removeCmd())
	cmd.AddCommand(commitCmd())
	cmd.AddCommand(loginCmd())
	cmd.AddCommand(logoutCmd())
	cmd.AddCommand(serveCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// Execute runs the CLI. Called by main.
func Execute(ver, date string) {
	version, buildDate = ver, date

	if err := rootCmd().Execute(); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// setup loads configuration, installs the logger, and builds the provider.
// Every record-touching command starts here.
func setup() (*config.Config, *zonedns.Provider, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	metrics.SetBuildInfo(version, runtime.Version())

	opts := []zonedns.ProviderOption{
		zonedns.WithProviderLogger(logger),
	}
	if cfg.Provider.PropagationCheck {
		checker := dnscheck.NewChecker(
			dnscheck.WithNameservers(cfg.Nameservers...),
			dnscheck.WithInterval(cfg.Provider.PollInterval),
			dnscheck.WithLogger(logger),
		)
		opts = append(opts, zonedns.WithPropagationWaiter(checker))
	}

	provider, err := zonedns.New(&cfg.Provider, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("creating provider: %w", err)
	}

	return cfg, provider, nil
}

func setupLogger(level, format string) *slog.Logger {
	logLevel := parseLogLevel(level)

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	}

	return slog.New(handler)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "zoneweaver %s (built %s, %s)\n",
				version, buildDate, runtime.Version())
		},
	}
}
