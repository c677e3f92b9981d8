package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"gitlab.bluewillows.net/root/zoneweaver/pkg/credential"
)

// FileConfig is the config file structure. YAML and TOML are both accepted;
// the decoder is chosen by file extension.
type FileConfig struct {
	Logging     *FileLoggingConfig     `yaml:"logging,omitempty" toml:"logging"`
	Zone        *FileZoneConfig        `yaml:"zone,omitempty" toml:"zone"`
	Propagation *FilePropagationConfig `yaml:"propagation,omitempty" toml:"propagation"`
	Server      *FileServerConfig      `yaml:"server,omitempty" toml:"server"`
}

// FileLoggingConfig holds logging settings.
type FileLoggingConfig struct {
	Level  string `yaml:"level,omitempty" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format,omitempty" toml:"format"` // json, text
}

// FileZoneConfig holds Zone.eu API settings.
type FileZoneConfig struct {
	Username    string `yaml:"username,omitempty" toml:"username"`
	APIKey      string `yaml:"api_key,omitempty" toml:"api_key"`
	APIKeyFile  string `yaml:"api_key_file,omitempty" toml:"api_key_file"`
	Keyring     bool   `yaml:"keyring,omitempty" toml:"keyring"`
	APIEndpoint string `yaml:"api_endpoint,omitempty" toml:"api_endpoint"`
	Timeout     string `yaml:"timeout,omitempty" toml:"timeout"` // Go duration format
}

// FilePropagationConfig holds propagation check settings.
type FilePropagationConfig struct {
	Check        *bool    `yaml:"check,omitempty" toml:"check"` // Pointer to distinguish unset from false
	Timeout      string   `yaml:"timeout,omitempty" toml:"timeout"`
	PollInterval string   `yaml:"poll_interval,omitempty" toml:"poll_interval"`
	Nameservers  []string `yaml:"nameservers,omitempty" toml:"nameservers"`
}

// FileServerConfig holds webhook serve mode settings.
type FileServerConfig struct {
	WebhookPort     int    `yaml:"webhook_port,omitempty" toml:"webhook_port"`
	HealthPort      int    `yaml:"health_port,omitempty" toml:"health_port"`
	WebhookUsername string `yaml:"webhook_username,omitempty" toml:"webhook_username"`
	WebhookPassword string `yaml:"webhook_password,omitempty" toml:"webhook_password"`
}

// envVarPattern matches ${VAR} or ${VAR:-default} syntax.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// InterpolateEnvVars replaces ${VAR} patterns with environment variable
// values. Supports ${VAR:-default} syntax for default values.
func InterpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 3 {
			defaultValue = groups[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// LoadFile reads and parses a config file. The format is chosen by
// extension: .yaml/.yml or .toml.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg FileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config file %s: unsupported extension %q (use .yaml, .yml, or .toml)", path, ext)
	}

	cfg.interpolateEnvVars()
	return &cfg, nil
}

// interpolateEnvVars interpolates environment variables in all string
// fields of the config structure.
func (fc *FileConfig) interpolateEnvVars() {
	if fc.Logging != nil {
		fc.Logging.Level = InterpolateEnvVars(fc.Logging.Level)
		fc.Logging.Format = InterpolateEnvVars(fc.Logging.Format)
	}

	if fc.Zone != nil {
		fc.Zone.Username = InterpolateEnvVars(fc.Zone.Username)
		fc.Zone.APIKey = InterpolateEnvVars(fc.Zone.APIKey)
		fc.Zone.APIKeyFile = InterpolateEnvVars(fc.Zone.APIKeyFile)
		fc.Zone.APIEndpoint = InterpolateEnvVars(fc.Zone.APIEndpoint)
		fc.Zone.Timeout = InterpolateEnvVars(fc.Zone.Timeout)
	}

	if fc.Propagation != nil {
		fc.Propagation.Timeout = InterpolateEnvVars(fc.Propagation.Timeout)
		fc.Propagation.PollInterval = InterpolateEnvVars(fc.Propagation.PollInterval)
		for i, ns := range fc.Propagation.Nameservers {
			fc.Propagation.Nameservers[i] = InterpolateEnvVars(ns)
		}
	}

	if fc.Server != nil {
		fc.Server.WebhookUsername = InterpolateEnvVars(fc.Server.WebhookUsername)
		fc.Server.WebhookPassword = InterpolateEnvVars(fc.Server.WebhookPassword)
	}
}

// applyTo overlays the file configuration onto cfg. Only set fields are
// applied; environment variables applied afterwards still win.
func (fc *FileConfig) applyTo(cfg *Config) []string {
	var errs []string

	if fc.Logging != nil {
		if fc.Logging.Level != "" {
			cfg.LogLevel = fc.Logging.Level
		}
		if fc.Logging.Format != "" {
			cfg.LogFormat = fc.Logging.Format
		}
	}

	if fc.Zone != nil {
		if fc.Zone.Username != "" {
			cfg.Provider.Username = fc.Zone.Username
		}
		switch {
		case fc.Zone.APIKey != "":
			cfg.Provider.Secret = credential.Plain(fc.Zone.APIKey)
		case fc.Zone.APIKeyFile != "":
			cfg.Provider.Secret = credential.FromFile(fc.Zone.APIKeyFile)
		case fc.Zone.Keyring:
			cfg.Provider.Secret = credential.FromKeyring(KeyringService, fc.Zone.Username)
		}
		if fc.Zone.APIEndpoint != "" {
			cfg.Provider.APIEndpoint = fc.Zone.APIEndpoint
		}
		if fc.Zone.Timeout != "" {
			cfg.Provider.Timeout = parseDuration(fc.Zone.Timeout, "zone.timeout", cfg.Provider.Timeout, &errs)
		}
	}

	if fc.Propagation != nil {
		if fc.Propagation.Check != nil {
			cfg.Provider.PropagationCheck = *fc.Propagation.Check
		}
		if fc.Propagation.Timeout != "" {
			cfg.Provider.PropagationTimeout = parseDuration(fc.Propagation.Timeout, "propagation.timeout", cfg.Provider.PropagationTimeout, &errs)
		}
		if fc.Propagation.PollInterval != "" {
			cfg.Provider.PollInterval = parseDuration(fc.Propagation.PollInterval, "propagation.poll_interval", cfg.Provider.PollInterval, &errs)
		}
		if len(fc.Propagation.Nameservers) > 0 {
			cfg.Nameservers = fc.Propagation.Nameservers
		}
	}

	if fc.Server != nil {
		if fc.Server.WebhookPort != 0 {
			cfg.WebhookPort = fc.Server.WebhookPort
		}
		if fc.Server.HealthPort != 0 {
			cfg.HealthPort = fc.Server.HealthPort
		}
		if fc.Server.WebhookUsername != "" {
			cfg.WebhookUsername = fc.Server.WebhookUsername
		}
		if fc.Server.WebhookPassword != "" {
			cfg.WebhookPassword = fc.Server.WebhookPassword
		}
	}

	return errs
}
