package zonedns

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"gitlab.bluewillows.net/root/zoneweaver/pkg/challenge"
	"gitlab.bluewillows.net/root/zoneweaver/pkg/credential"
)

// fakeZoneAPI is an in-memory Zone.eu API hosting a single zone. It records
// every mutating request so tests can assert exactly which calls were made.
type fakeZoneAPI struct {
	t    *testing.T
	zone string

	mu      sync.Mutex
	records []Record
	nextID  int
	calls   []string
}

func newFakeZoneAPI(t *testing.T, zone string) *fakeZoneAPI {
	return &fakeZoneAPI{t: t, zone: zone, nextID: 1}
}

func (f *fakeZoneAPI) mutations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for _, call := range f.calls {
		if strings.HasPrefix(call, "POST") || strings.HasPrefix(call, "PUT") || strings.HasPrefix(call, "DELETE") {
			out = append(out, call)
		}
	}
	return out
}

func (f *fakeZoneAPI) txtRecords() []Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Record(nil), f.records...)
}

func (f *fakeZoneAPI) seed(name, destination string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, Record{
		ID:          strconv.Itoa(f.nextID),
		Name:        name,
		Destination: destination,
	})
	f.nextID++
}

func (f *fakeZoneAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		f.calls = append(f.calls, r.Method+" "+r.URL.Path)

		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) < 3 || parts[0] != "dns" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		zone, rtype := parts[1], parts[2]

		if zone != f.zone {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")

		switch {
		case rtype == "a" && r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode([]Record{
				{ID: "1", Name: f.zone, Destination: "198.51.100.1"},
			})

		case rtype == "txt" && r.Method == http.MethodGet:
			if len(f.records) == 0 {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(f.records)

		case rtype == "txt" && r.Method == http.MethodPost:
			var req recordRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				f.t.Errorf("bad create body: %v", err)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			record := Record{
				ID:          strconv.Itoa(f.nextID),
				Name:        req.Name,
				Destination: req.Destination,
			}
			f.nextID++
			f.records = append(f.records, record)
			_ = json.NewEncoder(w).Encode(record)

		case rtype == "txt" && r.Method == http.MethodPut && len(parts) == 4:
			var req recordRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				f.t.Errorf("bad update body: %v", err)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			for i := range f.records {
				if f.records[i].ID == parts[3] {
					f.records[i].Name = req.Name
					f.records[i].Destination = req.Destination
					_ = json.NewEncoder(w).Encode(f.records[i])
					return
				}
			}
			w.WriteHeader(http.StatusNotFound)

		case rtype == "txt" && r.Method == http.MethodDelete && len(parts) == 4:
			for i := range f.records {
				if f.records[i].ID == parts[3] {
					f.records = append(f.records[:i], f.records[i+1:]...)
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			w.WriteHeader(http.StatusNotFound)

		default:
			f.t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

func newFakeProvider(t *testing.T, api *fakeZoneAPI, opts ...ProviderOption) (*Provider, func()) {
	t.Helper()

	server := httptest.NewServer(api.handler())

	opts = append(opts, WithClientOptions(WithAPIEndpoint(server.URL)))
	p, err := New(&Config{Username: "api-user", Secret: credential.Plain("hunter2")}, opts...)
	if err != nil {
		server.Close()
		t.Fatalf("failed to create provider: %v", err)
	}
	return p, server.Close
}

func TestPresentCreatesRecord(t *testing.T) {
	api := newFakeZoneAPI(t, "example.com")
	p, done := newFakeProvider(t, api)
	defer done()

	err := p.Present(context.Background(), "_acme-challenge.example.com.", "token-value")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records := api.txtRecords()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Name != "_acme-challenge.example.com" || records[0].Destination != "token-value" {
		t.Errorf("unexpected record: %+v", records[0])
	}

	mutations := api.mutations()
	if len(mutations) != 1 || mutations[0] != "POST /dns/example.com/txt" {
		t.Errorf("expected exactly one POST, got %v", mutations)
	}
}

func TestPresentIdempotent(t *testing.T) {
	api := newFakeZoneAPI(t, "example.com")
	p, done := newFakeProvider(t, api)
	defer done()
	ctx := context.Background()

	if err := p.Present(ctx, "_acme-challenge.example.com", "token-value"); err != nil {
		t.Fatalf("first present failed: %v", err)
	}
	if err := p.Present(ctx, "_acme-challenge.example.com", "token-value"); err != nil {
		t.Fatalf("second present failed: %v", err)
	}

	if got := len(api.txtRecords()); got != 1 {
		t.Errorf("expected 1 record after repeated present, got %d", got)
	}
	if mutations := api.mutations(); len(mutations) != 1 {
		t.Errorf("second present must not mutate, got %v", mutations)
	}
}

func TestPresentUpdatesInPlace(t *testing.T) {
	api := newFakeZoneAPI(t, "example.com")
	p, done := newFakeProvider(t, api)
	defer done()
	ctx := context.Background()

	if err := p.Present(ctx, "_acme-challenge.example.com", "old-value"); err != nil {
		t.Fatalf("first present failed: %v", err)
	}
	if err := p.Present(ctx, "_acme-challenge.example.com", "new-value"); err != nil {
		t.Fatalf("second present failed: %v", err)
	}

	records := api.txtRecords()
	if len(records) != 1 {
		t.Fatalf("expected 1 record after update, got %d", len(records))
	}
	if records[0].Destination != "new-value" {
		t.Errorf("expected destination new-value, got %q", records[0].Destination)
	}

	mutations := api.mutations()
	want := []string{
		"POST /dns/example.com/txt",
		"PUT /dns/example.com/txt/" + records[0].ID,
	}
	if len(mutations) != 2 || mutations[0] != want[0] || mutations[1] != want[1] {
		t.Errorf("expected %v, got %v", want, mutations)
	}
}

func TestPresentMatchesAnySameNameRecord(t *testing.T) {
	api := newFakeZoneAPI(t, "example.com")
	api.seed("_acme-challenge.example.com", "other-clients-value")
	api.seed("_acme-challenge.example.com", "token-value")
	p, done := newFakeProvider(t, api)
	defer done()

	err := p.Present(context.Background(), "_acme-challenge.example.com", "token-value")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mutations := api.mutations(); len(mutations) != 0 {
		t.Errorf("value already present on a sibling record, expected no mutations, got %v", mutations)
	}

	records := api.txtRecords()
	if len(records) != 2 {
		t.Fatalf("expected both records to survive, got %d", len(records))
	}
	if records[0].Destination != "other-clients-value" {
		t.Errorf("foreign record must not be rewritten, got %q", records[0].Destination)
	}
}

func TestCleanUpDeletesMatchingRecord(t *testing.T) {
	api := newFakeZoneAPI(t, "example.com")
	api.seed("_acme-challenge.example.com", "token-value")
	p, done := newFakeProvider(t, api)
	defer done()

	err := p.CleanUp(context.Background(), "_acme-challenge.example.com.", "token-value")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := len(api.txtRecords()); got != 0 {
		t.Errorf("expected record to be deleted, %d remain", got)
	}
	mutations := api.mutations()
	if len(mutations) != 1 || mutations[0] != "DELETE /dns/example.com/txt/1" {
		t.Errorf("expected exactly one DELETE, got %v", mutations)
	}
}

func TestCleanUpMissingRecordIsNoop(t *testing.T) {
	api := newFakeZoneAPI(t, "example.com")
	p, done := newFakeProvider(t, api)
	defer done()

	err := p.CleanUp(context.Background(), "_acme-challenge.example.com", "token-value")
	if err != nil {
		t.Fatalf("cleanup of absent record must not error, got: %v", err)
	}
	if mutations := api.mutations(); len(mutations) != 0 {
		t.Errorf("expected no mutations, got %v", mutations)
	}
}

func TestCleanUpValueMismatchIsNoop(t *testing.T) {
	api := newFakeZoneAPI(t, "example.com")
	api.seed("_acme-challenge.example.com", "someone-elses-value")
	p, done := newFakeProvider(t, api)
	defer done()

	err := p.CleanUp(context.Background(), "_acme-challenge.example.com", "token-value")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := len(api.txtRecords()); got != 1 {
		t.Errorf("record with foreign value must survive, %d remain", got)
	}
	if mutations := api.mutations(); len(mutations) != 0 {
		t.Errorf("expected no mutations, got %v", mutations)
	}
}

func TestCleanUpFailsWhenZoneUnresolvable(t *testing.T) {
	api := newFakeZoneAPI(t, "example.com")
	p, done := newFakeProvider(t, api)
	defer done()

	err := p.CleanUp(context.Background(), "_acme-challenge.example.org", "token-value")
	if !challenge.IsZoneNotFound(err) {
		t.Errorf("expected ErrZoneNotFound, got %v", err)
	}
}

func TestChallengeLifecycle(t *testing.T) {
	api := newFakeZoneAPI(t, "example.com")
	p, done := newFakeProvider(t, api)
	defer done()
	ctx := context.Background()

	if err := p.Present(ctx, "_acme-challenge.www.example.com.", "token-value"); err != nil {
		t.Fatalf("present failed: %v", err)
	}
	if err := p.Commit(ctx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if err := p.CleanUp(ctx, "_acme-challenge.www.example.com.", "token-value"); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}

	if got := len(api.txtRecords()); got != 0 {
		t.Errorf("expected no records after lifecycle, got %d", got)
	}

	mutations := api.mutations()
	if len(mutations) != 2 ||
		mutations[0] != "POST /dns/example.com/txt" ||
		!strings.HasPrefix(mutations[1], "DELETE /dns/example.com/txt/") {
		t.Errorf("expected POST then DELETE, got %v", mutations)
	}
}

type recordingWaiter struct {
	fqdn  string
	value string
	err   error
	calls int
}

func (rw *recordingWaiter) Wait(_ context.Context, fqdn, value string) error {
	rw.calls++
	rw.fqdn = fqdn
	rw.value = value
	return rw.err
}

func TestPresentWaitsForPropagation(t *testing.T) {
	api := newFakeZoneAPI(t, "example.com")
	waiter := &recordingWaiter{}

	server := httptest.NewServer(api.handler())
	defer server.Close()

	p, err := New(
		&Config{
			Username:         "api-user",
			Secret:           credential.Plain("hunter2"),
			PropagationCheck: true,
		},
		WithPropagationWaiter(waiter),
		WithClientOptions(WithAPIEndpoint(server.URL)),
	)
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	if err := p.Present(context.Background(), "_acme-challenge.example.com", "token-value"); err != nil {
		t.Fatalf("present failed: %v", err)
	}

	if waiter.calls != 1 {
		t.Fatalf("expected 1 propagation wait, got %d", waiter.calls)
	}
	if waiter.fqdn != "_acme-challenge.example.com" || waiter.value != "token-value" {
		t.Errorf("waiter called with %q/%q", waiter.fqdn, waiter.value)
	}
}

func TestPresentPropagationFailureSurfaces(t *testing.T) {
	api := newFakeZoneAPI(t, "example.com")
	waiter := &recordingWaiter{err: fmt.Errorf("still not visible")}

	server := httptest.NewServer(api.handler())
	defer server.Close()

	p, err := New(
		&Config{
			Username:         "api-user",
			Secret:           credential.Plain("hunter2"),
			PropagationCheck: true,
		},
		WithPropagationWaiter(waiter),
		WithClientOptions(WithAPIEndpoint(server.URL)),
	)
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	err = p.Present(context.Background(), "_acme-challenge.example.com", "token-value")
	if err == nil || !strings.Contains(err.Error(), "still not visible") {
		t.Errorf("expected propagation error to surface, got %v", err)
	}
}

func TestTimeoutReturnsConfiguredValues(t *testing.T) {
	api := newFakeZoneAPI(t, "example.com")
	p, done := newFakeProvider(t, api)
	defer done()

	timeout, interval := p.Timeout()
	if timeout != DefaultPropagationTimeout || interval != DefaultPollInterval {
		t.Errorf("unexpected timeout values: %v / %v", timeout, interval)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{name: "nil config", config: nil},
		{name: "missing username", config: &Config{Secret: credential.Plain("x")}},
		{name: "missing secret", config: &Config{Username: "api-user"}},
		{
			name: "negative poll interval",
			config: &Config{
				Username:     "api-user",
				Secret:       credential.Plain("x"),
				PollInterval: -time.Second,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.config); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	api := newFakeZoneAPI(t, "example.com")
	p, done := newFakeProvider(t, api)
	defer done()

	if err := p.HealthCheck(context.Background()); err != nil {
		t.Errorf("healthy provider reported error: %v", err)
	}
}
