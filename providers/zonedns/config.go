package zonedns

import (
	"errors"
	"time"

	"gitlab.bluewillows.net/root/zoneweaver/pkg/challenge"
	"gitlab.bluewillows.net/root/zoneweaver/pkg/credential"
)

// Propagation defaults. Zone.eu publishes changes quickly; two minutes is a
// comfortable ceiling for slow secondaries.
const (
	DefaultPropagationTimeout = challenge.DefaultPropagationTimeout
	DefaultPollInterval       = challenge.DefaultPollInterval
)

// Config holds Zone.eu provider configuration.
type Config struct {
	// Username is the Zone.eu account username for HTTP Basic auth.
	Username string

	// Secret is the API key. Exactly one source (plain text, file, or
	// keyring) must be configured.
	Secret credential.Secret

	// APIEndpoint overrides the API base URL. Defaults to DefaultAPIEndpoint.
	APIEndpoint string

	// Timeout is the HTTP client timeout. Defaults to DefaultTimeout.
	Timeout time.Duration

	// PropagationCheck enables waiting for the challenge record to become
	// visible on the zone's authoritative nameservers before Present returns.
	PropagationCheck bool

	// PropagationTimeout bounds the propagation wait.
	PropagationTimeout time.Duration

	// PollInterval is the delay between propagation re-checks.
	PollInterval time.Duration
}

// Validate checks that all required configuration is present and that the
// secret has exactly one source.
func (c *Config) Validate() error {
	if c.Username == "" {
		return challenge.ErrConfigMissing("USERNAME")
	}

	switch err := c.Secret.Validate(); {
	case errors.Is(err, credential.ErrNoSecret):
		return challenge.ErrConfigMissing("API_KEY")
	case errors.Is(err, credential.ErrAmbiguousSecret):
		return challenge.ErrConfigInvalid("API_KEY", "", "plain text, file, and keyring sources are mutually exclusive")
	case err != nil:
		return err
	}

	if c.PropagationTimeout < 0 {
		return challenge.ErrConfigInvalid("PROPAGATION_TIMEOUT", c.PropagationTimeout.String(), "must be non-negative")
	}
	if c.PollInterval < 0 {
		return challenge.ErrConfigInvalid("POLL_INTERVAL", c.PollInterval.String(), "must be non-negative")
	}

	return nil
}

// withDefaults returns a copy of the config with zero values replaced by
// defaults.
func (c *Config) withDefaults() *Config {
	out := *c
	if out.APIEndpoint == "" {
		out.APIEndpoint = DefaultAPIEndpoint
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.PropagationTimeout <= 0 {
		out.PropagationTimeout = DefaultPropagationTimeout
	}
	if out.PollInterval <= 0 {
		out.PollInterval = DefaultPollInterval
	}
	return &out
}
