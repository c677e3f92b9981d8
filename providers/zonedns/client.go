// Package zonedns implements an ACME DNS-01 challenge provider for the
// Zone.eu (Zone Media) DNS API.
package zonedns

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"gitlab.bluewillows.net/root/zoneweaver/internal/metrics"
	"gitlab.bluewillows.net/root/zoneweaver/pkg/challenge"
	"gitlab.bluewillows.net/root/zoneweaver/pkg/credential"
	"gitlab.bluewillows.net/root/zoneweaver/pkg/httputil"
)

const (
	// DefaultAPIEndpoint is the base URL for the Zone.eu API v2.
	DefaultAPIEndpoint = "https://api.zone.eu/v2"

	// DefaultTimeout is the HTTP client timeout.
	DefaultTimeout = 30 * time.Second
)

// errNotFound marks an HTTP 404 from the API. Absence is a normal outcome
// (zone or record does not exist yet); record operations translate it to an
// empty result instead of surfacing it to callers.
var errNotFound = errors.New("resource not found")

// Record represents a DNS record in the Zone.eu API wire format.
// The same shape is used for A records (zone probing) and TXT records.
type Record struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Destination string `json:"destination"`
}

// recordRequest is the request body for creating or updating a record.
type recordRequest struct {
	Name        string `json:"name"`
	Destination string `json:"destination"`
}

// Client is a Zone.eu DNS API client.
type Client struct {
	apiEndpoint string
	username    string
	secret      credential.Secret
	httpClient  *http.Client
	logger      *slog.Logger
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAPIEndpoint sets a custom API endpoint (useful for testing).
func WithAPIEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.apiEndpoint = endpoint
	}
}

// NewClient creates a new Zone.eu API client. The secret is resolved on
// every request, never held decoded.
func NewClient(username string, secret credential.Secret, opts ...ClientOption) *Client {
	c := &Client{
		apiEndpoint: DefaultAPIEndpoint,
		username:    username,
		secret:      secret,
		httpClient:  httputil.DefaultClient(),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// doRequest performs a single HTTP request to the Zone.eu API.
// A 404 response returns errNotFound; any other non-2xx status or transport
// failure is fatal for the operation. Exactly one round trip per call.
func (c *Client) doRequest(ctx context.Context, operation, method, path string, payload any) ([]byte, error) {
	start := time.Now()
	body, err := c.roundTrip(ctx, method, path, payload)
	metrics.APIRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.APIRequestsTotal.WithLabelValues(operation, "success").Inc()
	case errors.Is(err, errNotFound):
		metrics.APIRequestsTotal.WithLabelValues(operation, "not_found").Inc()
	default:
		metrics.APIRequestsTotal.WithLabelValues(operation, "error").Inc()
	}

	return body, err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	reqURL := c.apiEndpoint + path

	c.logger.Debug("making API request",
		slog.String("method", method),
		slog.String("path", path),
	)

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	// The auth token is derived fresh for every request.
	token, err := credential.BasicAuth(c.username, c.secret)
	if err != nil {
		return nil, fmt.Errorf("building auth token: %w", err)
	}

	req.Header.Set("Authorization", "Basic "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", challenge.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", challenge.ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// GetARecords returns the A records of a zone. A 404 (zone not hosted)
// returns an empty result, not an error. Used as a zone existence probe:
// the API has no "find zone for name" endpoint.
func (c *Client) GetARecords(ctx context.Context, zone string) ([]Record, error) {
	body, err := c.doRequest(ctx, "list_a", http.MethodGet, "/dns/"+zone+"/a", nil)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing A records for %s: %w", zone, err)
	}

	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("parsing A records response: %w", err)
	}

	return records, nil
}

// GetTXTRecords returns all TXT records of a zone. A 404 (no records yet)
// returns an empty result, not an error.
func (c *Client) GetTXTRecords(ctx context.Context, zone string) ([]Record, error) {
	body, err := c.doRequest(ctx, "list_txt", http.MethodGet, "/dns/"+zone+"/txt", nil)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing TXT records for %s: %w", zone, err)
	}

	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("parsing TXT records response: %w", err)
	}

	c.logger.Debug("listed TXT records",
		slog.String("zone", zone),
		slog.Int("count", len(records)),
	)

	return records, nil
}

// CreateTXTRecord creates a TXT record in the zone.
func (c *Client) CreateTXTRecord(ctx context.Context, zone, name, destination string) (*Record, error) {
	payload := recordRequest{Name: name, Destination: destination}

	body, err := c.doRequest(ctx, "create_txt", http.MethodPost, "/dns/"+zone+"/txt", payload)
	if err != nil {
		return nil, fmt.Errorf("creating TXT record %s: %w", name, err)
	}

	record, err := parseRecordResponse(body)
	if err != nil {
		return nil, fmt.Errorf("parsing create response: %w", err)
	}

	c.logger.Info("created TXT record",
		slog.String("zone", zone),
		slog.String("name", name),
	)

	return record, nil
}

// UpdateTXTRecord overwrites an existing TXT record in place.
func (c *Client) UpdateTXTRecord(ctx context.Context, zone, id, name, destination string) (*Record, error) {
	payload := recordRequest{Name: name, Destination: destination}

	body, err := c.doRequest(ctx, "update_txt", http.MethodPut, "/dns/"+zone+"/txt/"+id, payload)
	if err != nil {
		return nil, fmt.Errorf("updating TXT record %s: %w", id, err)
	}

	record, err := parseRecordResponse(body)
	if err != nil {
		return nil, fmt.Errorf("parsing update response: %w", err)
	}

	c.logger.Info("updated TXT record",
		slog.String("zone", zone),
		slog.String("id", id),
		slog.String("name", name),
	)

	return record, nil
}

// DeleteTXTRecord deletes a TXT record by id. Deleting a record that is
// already gone is not an error.
func (c *Client) DeleteTXTRecord(ctx context.Context, zone, id string) error {
	_, err := c.doRequest(ctx, "delete_txt", http.MethodDelete, "/dns/"+zone+"/txt/"+id, nil)
	if errors.Is(err, errNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("deleting TXT record %s: %w", id, err)
	}

	c.logger.Info("deleted TXT record",
		slog.String("zone", zone),
		slog.String("id", id),
	)

	return nil
}

// parseRecordResponse handles both response shapes the API uses for
// mutations: a single record object or a single-element array.
func parseRecordResponse(body []byte) (*Record, error) {
	if len(body) == 0 {
		return nil, nil
	}

	var record Record
	if err := json.Unmarshal(body, &record); err == nil && record.Name != "" {
		return &record, nil
	}

	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}
