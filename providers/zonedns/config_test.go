package zonedns

import (
	"errors"
	"testing"
	"time"

	"gitlab.bluewillows.net/root/zoneweaver/pkg/challenge"
	"gitlab.bluewillows.net/root/zoneweaver/pkg/credential"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid with plain secret",
			config: Config{Username: "api-user", Secret: credential.Plain("hunter2")},
		},
		{
			name:   "valid with file secret",
			config: Config{Username: "api-user", Secret: credential.FromFile("/run/secrets/zone_api_key")},
		},
		{
			name:   "valid with keyring secret",
			config: Config{Username: "api-user", Secret: credential.FromKeyring("zoneweaver", "api-user")},
		},
		{
			name:    "missing username",
			config:  Config{Secret: credential.Plain("hunter2")},
			wantErr: true,
		},
		{
			name:    "missing secret",
			config:  Config{Username: "api-user"},
			wantErr: true,
		},
		{
			name: "negative propagation timeout",
			config: Config{
				Username:           "api-user",
				Secret:             credential.Plain("hunter2"),
				PropagationTimeout: -time.Minute,
			},
			wantErr: true,
		},
		{
			name: "negative poll interval",
			config: Config{
				Username:     "api-user",
				Secret:       credential.Plain("hunter2"),
				PollInterval: -time.Second,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.wantErr {
				var configErr *challenge.ConfigError
				if !errors.As(err, &configErr) {
					t.Errorf("expected *challenge.ConfigError, got %T", err)
				}
			}
		})
	}
}

func TestConfigWithDefaults(t *testing.T) {
	config := Config{Username: "api-user", Secret: credential.Plain("hunter2")}
	got := config.withDefaults()

	if got.APIEndpoint != DefaultAPIEndpoint {
		t.Errorf("expected default endpoint, got %s", got.APIEndpoint)
	}
	if got.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout, got %v", got.Timeout)
	}
	if got.PropagationTimeout != DefaultPropagationTimeout {
		t.Errorf("expected default propagation timeout, got %v", got.PropagationTimeout)
	}
	if got.PollInterval != DefaultPollInterval {
		t.Errorf("expected default poll interval, got %v", got.PollInterval)
	}

	// Explicit values survive.
	config.APIEndpoint = "https://api.example.test/v2"
	config.Timeout = 5 * time.Second
	got = config.withDefaults()
	if got.APIEndpoint != "https://api.example.test/v2" || got.Timeout != 5*time.Second {
		t.Errorf("explicit values overridden: %+v", got)
	}
}
