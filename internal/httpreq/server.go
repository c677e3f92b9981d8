// Package httpreq exposes a DNS-01 solver over the ACME httpreq webhook
// protocol: POST /present and POST /cleanup with a JSON body naming the
// challenge record and its value.
package httpreq

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"gitlab.bluewillows.net/root/zoneweaver/internal/metrics"
	"gitlab.bluewillows.net/root/zoneweaver/pkg/challenge"
)

// maxRequestBody caps webhook request bodies. Challenge payloads are a
// record name and a digest; anything larger is garbage.
const maxRequestBody = 64 << 10

// challengeRequest is the webhook request body.
type challengeRequest struct {
	FQDN  string `json:"fqdn"`
	Value string `json:"value"`
}

// errorResponse is the body returned for failed requests.
type errorResponse struct {
	Error string `json:"error"`
}

// Server handles webhook challenge requests and forwards them to a solver.
type Server struct {
	port   int
	solver challenge.Solver
	logger *slog.Logger

	username string
	password string

	mux    *http.ServeMux
	server *http.Server
}

// Option is a functional option for configuring the Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBasicAuth requires HTTP Basic credentials on every request.
func WithBasicAuth(username, password string) Option {
	return func(s *Server) {
		s.username = username
		s.password = password
	}
}

// New creates a webhook server that delegates to the given solver.
func New(port int, solver challenge.Solver, opts ...Option) *Server {
	s := &Server{
		port:   port,
		solver: solver,
		logger: slog.Default(),
		mux:    http.NewServeMux(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("/present", s.handle("present", s.solver.Present))
	s.mux.HandleFunc("/cleanup", s.handle("cleanup", s.solver.CleanUp))

	return s
}

// handle wraps a solver operation in the webhook protocol: POST only,
// JSON body, optional basic auth.
func (s *Server) handle(endpoint string, op func(ctx context.Context, fqdn, value string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := s.serve(w, r, endpoint, op)
		metrics.WebhookRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	}
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request, endpoint string, op func(ctx context.Context, fqdn, value string) error) int {
	if r.Method != http.MethodPost {
		return s.fail(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
	}

	if !s.authorized(r) {
		w.Header().Set("WWW-Authenticate", `Basic realm="zoneweaver"`)
		return s.fail(w, http.StatusUnauthorized, fmt.Errorf("invalid credentials"))
	}

	var req challengeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return s.fail(w, http.StatusBadRequest, fmt.Errorf("decoding request body: %w", err))
	}
	if req.FQDN == "" || req.Value == "" {
		return s.fail(w, http.StatusBadRequest, fmt.Errorf("fqdn and value are required"))
	}

	s.logger.Info("webhook challenge request",
		slog.String("endpoint", endpoint),
		slog.String("fqdn", req.FQDN),
	)

	if err := op(r.Context(), req.FQDN, req.Value); err != nil {
		s.logger.Error("challenge operation failed",
			slog.String("endpoint", endpoint),
			slog.String("fqdn", req.FQDN),
			slog.String("error", err.Error()),
		)
		return s.fail(w, http.StatusInternalServerError, err)
	}

	w.WriteHeader(http.StatusOK)
	return http.StatusOK
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) int {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
	return status
}

// authorized checks HTTP Basic credentials when configured.
func (s *Server) authorized(r *http.Request) bool {
	if s.username == "" && s.password == "" {
		return true
	}

	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(s.username)) == 1
	passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(s.password)) == 1
	return userMatch && passMatch
}

// Start starts the webhook server in a goroutine.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.logger.Info("webhook server starting", slog.Int("port", s.port))
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("webhook server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the webhook server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}
