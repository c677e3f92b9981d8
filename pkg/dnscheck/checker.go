// Package dnscheck verifies that published TXT challenge records are
// visible in DNS before an ACME order proceeds to validation.
package dnscheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// Defaults for the polling loop.
const (
	DefaultInterval     = 5 * time.Second
	DefaultQueryTimeout = 10 * time.Second
)

// ErrNoNameservers is returned when no nameserver could be determined.
var ErrNoNameservers = errors.New("no nameservers available")

// Checker polls DNS for a TXT record until it is visible on every queried
// nameserver or the context expires. It satisfies the PropagationWaiter
// contract of the provider packages.
type Checker struct {
	nameservers []string
	interval    time.Duration
	dnsClient   *dns.Client
	logger      *slog.Logger
}

// Option is a functional option for configuring the Checker.
type Option func(*Checker)

// WithNameservers sets explicit nameservers to poll (host:port). When unset
// the system resolvers from /etc/resolv.conf are used.
func WithNameservers(servers ...string) Option {
	return func(c *Checker) {
		c.nameservers = servers
	}
}

// WithInterval sets the delay between polls.
func WithInterval(interval time.Duration) Option {
	return func(c *Checker) {
		if interval > 0 {
			c.interval = interval
		}
	}
}

// WithQueryTimeout sets the timeout for a single DNS query.
func WithQueryTimeout(timeout time.Duration) Option {
	return func(c *Checker) {
		if timeout > 0 {
			c.dnsClient.Timeout = timeout
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChecker creates a propagation checker.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		interval: DefaultInterval,
		dnsClient: &dns.Client{
			Net:     "udp",
			Timeout: DefaultQueryTimeout,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Wait blocks until the TXT record fqdn holds value on every queried
// nameserver, or ctx expires. Transient query failures are retried on the
// next tick rather than aborting the wait.
func (c *Checker) Wait(ctx context.Context, fqdn, value string) error {
	servers, err := c.servers()
	if err != nil {
		return err
	}

	c.logger.Debug("waiting for TXT propagation",
		slog.String("record", fqdn),
		slog.Int("nameservers", len(servers)),
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		visible, err := c.visibleEverywhere(ctx, servers, fqdn, value)
		if err != nil {
			c.logger.Debug("propagation check failed, will retry",
				slog.String("record", fqdn),
				slog.String("error", err.Error()),
			)
		}
		if visible {
			c.logger.Debug("TXT record propagated",
				slog.String("record", fqdn),
			)
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("record %s not visible before deadline: %w", fqdn, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Checker) visibleEverywhere(ctx context.Context, servers []string, fqdn, value string) (bool, error) {
	for _, server := range servers {
		values, err := c.lookupTXT(ctx, server, fqdn)
		if err != nil {
			return false, err
		}

		found := false
		for _, v := range values {
			if v == value {
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	}
	return true, nil
}

// lookupTXT queries a single nameserver for the TXT records of fqdn.
// NXDOMAIN yields an empty result, not an error.
func (c *Checker) lookupTXT(ctx context.Context, server, fqdn string) ([]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(fqdn), dns.TypeTXT)
	msg.RecursionDesired = true

	resp, err := c.exchangeWithContext(ctx, msg, server)
	if err != nil {
		return nil, fmt.Errorf("querying %s for %s: %w", server, fqdn, err)
	}

	if resp.Rcode == dns.RcodeNameError {
		return nil, nil
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("query for %s returned %s", fqdn, dns.RcodeToString[resp.Rcode])
	}

	var values []string
	for _, rr := range resp.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			values = append(values, strings.Join(txt.Txt, ""))
		}
	}

	return values, nil
}

// exchangeWithContext performs a DNS exchange with context support.
func (c *Checker) exchangeWithContext(ctx context.Context, msg *dns.Msg, server string) (*dns.Msg, error) {
	type result struct {
		resp *dns.Msg
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		resp, _, err := c.dnsClient.Exchange(msg, server)
		ch <- result{resp, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.resp, r.err
	}
}

// servers returns the nameservers to poll: the configured set, or the
// system resolvers.
func (c *Checker) servers() ([]string, error) {
	if len(c.nameservers) > 0 {
		return c.nameservers, nil
	}

	config, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoNameservers, err)
	}
	if len(config.Servers) == 0 {
		return nil, ErrNoNameservers
	}

	servers := make([]string, 0, len(config.Servers))
	for _, s := range config.Servers {
		servers = append(servers, net.JoinHostPort(s, config.Port))
	}
	return servers, nil
}
