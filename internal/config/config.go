// Package config handles loading and validation of zoneweaver configuration
// from environment variables and an optional config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/zoneweaver/providers/zonedns"
)

// Configuration defaults.
const (
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultWebhookPort = 8888
	DefaultHealthPort  = 8080

	// KeyringService is the OS keyring service name under which API keys
	// are stored by the login command.
	KeyringService = "zoneweaver"
)

// Config holds the complete application configuration.
type Config struct {
	// Logging configuration
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	// Provider holds the Zone.eu provider settings.
	Provider zonedns.Config

	// Nameservers are explicit propagation-check nameservers (host:port).
	// Empty means the system resolvers.
	Nameservers []string

	// Webhook serve mode
	WebhookPort     int
	HealthPort      int
	WebhookUsername string
	WebhookPassword string
}

// ValidationError aggregates configuration errors so a misconfigured start
// reports everything wrong at once.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration error: %s", e.Errors[0])
	}
	return fmt.Sprintf("configuration errors:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Load builds the configuration: defaults, then the config file named by
// ZONEWEAVER_CONFIG_FILE (if any), then environment variables on top.
// Returns a *ValidationError listing every problem found.
func Load() (*Config, error) {
	return load(getEnv("ZONEWEAVER_CONFIG_FILE"))
}

func load(configFile string) (*Config, error) {
	cfg := &Config{
		LogLevel:    DefaultLogLevel,
		LogFormat:   DefaultLogFormat,
		WebhookPort: DefaultWebhookPort,
		HealthPort:  DefaultHealthPort,
	}

	var errs []string

	if configFile != "" {
		fileCfg, err := LoadFile(configFile)
		if err != nil {
			return nil, &ValidationError{Errors: []string{err.Error()}}
		}
		errs = append(errs, fileCfg.applyTo(cfg)...)
	}

	errs = append(errs, applyEnv(cfg)...)
	errs = append(errs, validate(cfg)...)

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return cfg, nil
}

// validate performs cross-field validation on the assembled configuration.
func validate(cfg *Config) []string {
	var errs []string

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("ZONEWEAVER_LOG_LEVEL: invalid value %q (must be debug, info, warn, or error)", cfg.LogLevel))
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	switch cfg.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("ZONEWEAVER_LOG_FORMAT: invalid value %q (must be json or text)", cfg.LogFormat))
	}

	if cfg.WebhookPort < 1 || cfg.WebhookPort > 65535 {
		errs = append(errs, fmt.Sprintf("ZONEWEAVER_WEBHOOK_PORT: must be between 1 and 65535, got %d", cfg.WebhookPort))
	}
	if cfg.HealthPort < 1 || cfg.HealthPort > 65535 {
		errs = append(errs, fmt.Sprintf("ZONEWEAVER_HEALTH_PORT: must be between 1 and 65535, got %d", cfg.HealthPort))
	}
	if cfg.WebhookPort == cfg.HealthPort {
		errs = append(errs, fmt.Sprintf("webhook and health ports must differ, both are %d", cfg.WebhookPort))
	}

	if err := cfg.Provider.Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	return errs
}

// parseDuration parses a duration setting, appending an error to errs on
// failure and returning the fallback.
func parseDuration(value, name string, fallback time.Duration, errs *[]string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: invalid duration %q (use format like 30s, 2m)", name, value))
		return fallback
	}
	return d
}
