// Package challenge defines the interface an ACME DNS-01 solver must
// implement and the error types shared by its implementations.
package challenge

import (
	"context"
	"strings"
	"time"
)

// DefaultPropagationTimeout is how long callers should wait for a challenge
// record to become visible before giving up.
const DefaultPropagationTimeout = 2 * time.Minute

// DefaultPollInterval is how often callers should re-check for propagation.
const DefaultPollInterval = 5 * time.Second

// Solver is the minimal surface an ACME orchestrator needs: publish a TXT
// challenge record and remove it afterwards. Both operations are idempotent.
type Solver interface {
	// Present ensures a TXT record with the given value exists for fqdn.
	Present(ctx context.Context, fqdn, value string) error

	// CleanUp removes the TXT record for fqdn if, and only if, its value
	// matches. Absence is not an error.
	CleanUp(ctx context.Context, fqdn, value string) error
}

// Provider is a full DNS-01 challenge provider.
type Provider interface {
	Solver

	// Commit finalizes pending changes. Providers that apply changes
	// immediately implement this as a no-op.
	Commit(ctx context.Context) error

	// Timeout returns the propagation timeout and the poll interval the
	// orchestrator should use for this provider.
	Timeout() (timeout, interval time.Duration)
}

// UnFqdn strips the trailing dot from a fully qualified domain name.
// ACME libraries hand over names in "name." form; provider APIs want the
// bare name.
func UnFqdn(name string) string {
	return strings.TrimSuffix(name, ".")
}
