package zonedns

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/zoneweaver/internal/metrics"
	"gitlab.bluewillows.net/root/zoneweaver/pkg/challenge"
	"gitlab.bluewillows.net/root/zoneweaver/pkg/httputil"
)

// PropagationWaiter blocks until a TXT record with the given value is
// visible in DNS, or the context expires.
type PropagationWaiter interface {
	Wait(ctx context.Context, fqdn, value string) error
}

// Provider implements challenge.Provider for Zone.eu DNS.
// Each Provider owns its zone cache; independent instances never share
// resolution state.
type Provider struct {
	config *Config
	client *Client
	zones  *zoneCache
	waiter PropagationWaiter
	logger *slog.Logger

	clientOpts []ClientOption
}

// ProviderOption is a functional option for configuring the Provider.
type ProviderOption func(*Provider)

// WithProviderLogger sets a custom logger for the provider.
func WithProviderLogger(logger *slog.Logger) ProviderOption {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithPropagationWaiter sets the checker used to wait for DNS propagation
// after a record is published. Only consulted when the config enables
// propagation checking.
func WithPropagationWaiter(waiter PropagationWaiter) ProviderOption {
	return func(p *Provider) {
		p.waiter = waiter
	}
}

// WithClientOptions passes extra options to the underlying API client
// (useful for tests).
func WithClientOptions(opts ...ClientOption) ProviderOption {
	return func(p *Provider) {
		p.clientOpts = append(p.clientOpts, opts...)
	}
}

// New creates a new Zone.eu provider instance.
func New(config *Config, opts ...ProviderOption) (*Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		config: config.withDefaults(),
		zones:  newZoneCache(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	clientOpts := append([]ClientOption{
		WithLogger(p.logger),
		WithAPIEndpoint(p.config.APIEndpoint),
		WithHTTPClient(httputil.NewClient(&httputil.ClientConfig{
			Timeout: p.config.Timeout,
			Logger:  p.logger,
		})),
	}, p.clientOpts...)

	p.client = NewClient(p.config.Username, p.config.Secret, clientOpts...)

	return p, nil
}

// Present ensures a TXT record with the given value exists for fqdn.
//
// If a record with the same name and value already exists this is a no-op.
// If a record with the same name but a different value exists it is updated
// in place, never duplicated. Otherwise a new record is created.
func (p *Provider) Present(ctx context.Context, fqdn, value string) error {
	name := challenge.UnFqdn(fqdn)

	outcome, err := p.upsert(ctx, name, value)
	if err != nil {
		metrics.ChallengesPresentedTotal.WithLabelValues("error").Inc()
		return challenge.WrapError("zonedns", "present", err)
	}
	metrics.ChallengesPresentedTotal.WithLabelValues(outcome).Inc()

	p.logger.Info("challenge record presented",
		slog.String("record", name),
		slog.String("outcome", outcome),
	)

	if p.config.PropagationCheck && p.waiter != nil {
		if err := p.waitForPropagation(ctx, name, value); err != nil {
			return challenge.WrapError("zonedns", "present", err)
		}
	}

	return nil
}

func (p *Provider) upsert(ctx context.Context, name, value string) (string, error) {
	zone, err := p.resolveZone(ctx, name)
	if err != nil {
		return "", err
	}

	records, err := p.client.GetTXTRecords(ctx, zone)
	if err != nil {
		return "", err
	}

	// A name can hold several TXT records, and any of them may already
	// carry the value. Scan the full listing before touching anything so a
	// sibling record (another client's active challenge) is never
	// overwritten.
	var existing *Record
	for i := range records {
		if !strings.EqualFold(records[i].Name, name) {
			continue
		}
		if records[i].Destination == value {
			return "unchanged", nil
		}
		if existing == nil {
			existing = &records[i]
		}
	}

	if existing != nil {
		if _, err := p.client.UpdateTXTRecord(ctx, zone, existing.ID, name, value); err != nil {
			return "", err
		}
		return "updated", nil
	}

	if _, err := p.client.CreateTXTRecord(ctx, zone, name, value); err != nil {
		return "", err
	}
	return "created", nil
}

// CleanUp removes the TXT record for fqdn if its value matches.
// A missing record, a value mismatch, or an empty zone listing is a no-op:
// cleanup never deletes a record it did not publish and never fails on
// "already absent".
func (p *Provider) CleanUp(ctx context.Context, fqdn, value string) error {
	name := challenge.UnFqdn(fqdn)

	zone, err := p.resolveZone(ctx, name)
	if err != nil {
		metrics.ChallengesCleanedTotal.WithLabelValues("error").Inc()
		return challenge.WrapError("zonedns", "cleanup", err)
	}

	records, err := p.client.GetTXTRecords(ctx, zone)
	if err != nil {
		metrics.ChallengesCleanedTotal.WithLabelValues("error").Inc()
		return challenge.WrapError("zonedns", "cleanup", err)
	}

	for _, record := range records {
		if strings.EqualFold(record.Name, name) && record.Destination == value {
			if err := p.client.DeleteTXTRecord(ctx, zone, record.ID); err != nil {
				metrics.ChallengesCleanedTotal.WithLabelValues("error").Inc()
				return challenge.WrapError("zonedns", "cleanup", err)
			}
			metrics.ChallengesCleanedTotal.WithLabelValues("deleted").Inc()
			p.logger.Info("challenge record removed",
				slog.String("record", name),
				slog.String("zone", zone),
			)
			return nil
		}
	}

	metrics.ChallengesCleanedTotal.WithLabelValues("skipped").Inc()
	p.logger.Debug("no matching challenge record to remove",
		slog.String("record", name),
		slog.String("zone", zone),
	)
	return nil
}

// Commit is a no-op: Zone.eu applies record changes immediately, there is no
// separate publish step.
func (p *Provider) Commit(_ context.Context) error {
	return nil
}

// Timeout returns the propagation timeout and poll interval configured for
// this provider.
func (p *Provider) Timeout() (timeout, interval time.Duration) {
	return p.config.PropagationTimeout, p.config.PollInterval
}

// HealthCheck verifies that the configured credential can be resolved.
// It does not call the API.
func (p *Provider) HealthCheck(_ context.Context) error {
	if _, err := p.config.Secret.Reveal(); err != nil {
		return fmt.Errorf("resolving credential: %w", err)
	}
	return nil
}

func (p *Provider) waitForPropagation(ctx context.Context, name, value string) error {
	waitCtx, cancel := context.WithTimeout(ctx, p.config.PropagationTimeout)
	defer cancel()

	start := time.Now()
	err := p.waiter.Wait(waitCtx, name, value)
	metrics.PropagationWaitDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		return fmt.Errorf("waiting for propagation of %s: %w", name, err)
	}

	p.logger.Debug("challenge record propagated",
		slog.String("record", name),
		slog.Duration("waited", time.Since(start)),
	)
	return nil
}

// Ensure Provider implements challenge.Provider at compile time.
var _ challenge.Provider = (*Provider)(nil)
