package zonedns

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"gitlab.bluewillows.net/root/zoneweaver/internal/metrics"
	"gitlab.bluewillows.net/root/zoneweaver/pkg/challenge"
)

// zoneCache maps record names to the hosted zone that contains them.
// Zone assignment is stable for the life of a provider instance, so entries
// are never evicted. The cache is owned by a Provider, not shared globally,
// so independent sessions never see each other's entries.
type zoneCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

func newZoneCache() *zoneCache {
	return &zoneCache{entries: make(map[string]string)}
}

func (zc *zoneCache) get(recordName string) (string, bool) {
	zc.mu.RLock()
	defer zc.mu.RUnlock()
	zone, ok := zc.entries[recordName]
	return zone, ok
}

func (zc *zoneCache) put(recordName, zone string) {
	zc.mu.Lock()
	defer zc.mu.Unlock()
	zc.entries[recordName] = zone
}

// resolveZone determines which hosted zone contains recordName.
//
// The API offers no "find zone for arbitrary name" endpoint, so existence is
// probed suffix by suffix, longest first: an account may host both a parent
// zone and a more specific child zone, and the most specific match must win.
// A candidate is confirmed when its A record listing contains an entry named
// exactly like the candidate. The bare final label (a TLD) is never probed.
func (p *Provider) resolveZone(ctx context.Context, recordName string) (string, error) {
	if zone, ok := p.zones.get(recordName); ok {
		metrics.ZoneResolutionsTotal.WithLabelValues("cache_hit").Inc()
		p.logger.Debug("zone cache hit",
			slog.String("record", recordName),
			slog.String("zone", zone),
		)
		return zone, nil
	}

	labels := strings.Split(recordName, ".")
	for i := 0; i+1 < len(labels); i++ {
		candidate := strings.Join(labels[i:], ".")

		metrics.ZoneProbesTotal.Inc()
		records, err := p.client.GetARecords(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("probing zone %s: %w", candidate, err)
		}

		for _, record := range records {
			if strings.EqualFold(record.Name, candidate) {
				p.zones.put(recordName, candidate)
				metrics.ZoneResolutionsTotal.WithLabelValues("probed").Inc()
				p.logger.Debug("resolved zone",
					slog.String("record", recordName),
					slog.String("zone", candidate),
				)
				return candidate, nil
			}
		}
	}

	metrics.ZoneResolutionsTotal.WithLabelValues("miss").Inc()
	return "", fmt.Errorf("%w for record %q", challenge.ErrZoneNotFound, recordName)
}
