package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gitlab.bluewillows.net/root/zoneweaver/pkg/credential"
)

// getEnv retrieves an environment variable value.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrFile retrieves a value from either a direct environment variable
// or a file path named by the file key (Docker secrets pattern). The file
// takes precedence so production secrets win over leftover direct values.
// File contents are trimmed of surrounding whitespace.
func getEnvOrFile(directKey, fileKey string) string {
	if filePath := os.Getenv(fileKey); filePath != "" {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return os.Getenv(directKey)
}

// parseBool parses a boolean string, returning defaultValue on parse failure.
// Accepts: true/false, 1/0, yes/no, on/off (case-insensitive).
func parseBool(s string, defaultValue bool) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// applyEnv overlays ZONEWEAVER_* environment variables onto cfg.
// Environment variables override config file values.
func applyEnv(cfg *Config) []string {
	var errs []string

	if v := getEnv("ZONEWEAVER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getEnv("ZONEWEAVER_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	if v := getEnvOrFile("ZONEWEAVER_USERNAME", "ZONEWEAVER_USERNAME_FILE"); v != "" {
		cfg.Provider.Username = v
	}

	applyEnvSecret(cfg, &errs)

	if v := getEnv("ZONEWEAVER_API_ENDPOINT"); v != "" {
		cfg.Provider.APIEndpoint = v
	}
	if v := getEnv("ZONEWEAVER_TIMEOUT"); v != "" {
		cfg.Provider.Timeout = parseDuration(v, "ZONEWEAVER_TIMEOUT", cfg.Provider.Timeout, &errs)
	}

	if v := getEnv("ZONEWEAVER_PROPAGATION_CHECK"); v != "" {
		cfg.Provider.PropagationCheck = parseBool(v, false)
	}
	if v := getEnv("ZONEWEAVER_PROPAGATION_TIMEOUT"); v != "" {
		cfg.Provider.PropagationTimeout = parseDuration(v, "ZONEWEAVER_PROPAGATION_TIMEOUT", cfg.Provider.PropagationTimeout, &errs)
	}
	if v := getEnv("ZONEWEAVER_POLL_INTERVAL"); v != "" {
		cfg.Provider.PollInterval = parseDuration(v, "ZONEWEAVER_POLL_INTERVAL", cfg.Provider.PollInterval, &errs)
	}
	if v := getEnv("ZONEWEAVER_NAMESERVERS"); v != "" {
		cfg.Nameservers = splitList(v)
	}

	if v := getEnv("ZONEWEAVER_WEBHOOK_PORT"); v != "" {
		cfg.WebhookPort = parsePort(v, "ZONEWEAVER_WEBHOOK_PORT", cfg.WebhookPort, &errs)
	}
	if v := getEnv("ZONEWEAVER_HEALTH_PORT"); v != "" {
		cfg.HealthPort = parsePort(v, "ZONEWEAVER_HEALTH_PORT", cfg.HealthPort, &errs)
	}
	if v := getEnv("ZONEWEAVER_WEBHOOK_USERNAME"); v != "" {
		cfg.WebhookUsername = v
	}
	if v := getEnvOrFile("ZONEWEAVER_WEBHOOK_PASSWORD", "ZONEWEAVER_WEBHOOK_PASSWORD_FILE"); v != "" {
		cfg.WebhookPassword = v
	}

	return errs
}

// applyEnvSecret selects the API key source from the environment.
// ZONEWEAVER_API_KEY, ZONEWEAVER_API_KEY_FILE, and
// ZONEWEAVER_API_KEY_KEYRING are mutually exclusive; whichever is set
// replaces any secret from the config file.
func applyEnvSecret(cfg *Config, errs *[]string) {
	apiKey := getEnv("ZONEWEAVER_API_KEY")
	apiKeyFile := getEnv("ZONEWEAVER_API_KEY_FILE")
	useKeyring := parseBool(getEnv("ZONEWEAVER_API_KEY_KEYRING"), false)

	sources := 0
	if apiKey != "" {
		sources++
	}
	if apiKeyFile != "" {
		sources++
	}
	if useKeyring {
		sources++
	}

	switch {
	case sources > 1:
		*errs = append(*errs, "ZONEWEAVER_API_KEY, ZONEWEAVER_API_KEY_FILE, and ZONEWEAVER_API_KEY_KEYRING are mutually exclusive")

	case apiKey != "":
		cfg.Provider.Secret = credential.Plain(apiKey)

	case apiKeyFile != "":
		cfg.Provider.Secret = credential.FromFile(apiKeyFile)

	case useKeyring:
		cfg.Provider.Secret = credential.FromKeyring(KeyringService, cfg.Provider.Username)
	}
}

// parsePort parses a TCP port setting, appending an error to errs on
// failure and returning the fallback.
func parsePort(value, name string, fallback int, errs *[]string) int {
	port, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: invalid integer %q", name, value))
		return fallback
	}
	return port
}

// splitList splits a comma-separated list, trimming whitespace and dropping
// empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
