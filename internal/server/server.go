// Package server provides the local HTTP API: liveness and readiness of the
// host directory, Prometheus metrics, host search and result activation.
//
// The search endpoints only answer requests addressed to a loopback host
// name, and activation additionally refuses browser-originated requests, so
// a web page cannot reach the launcher through the user's browser.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gitlab.bluewillows.net/root/sshsearch/internal/directory"
	"gitlab.bluewillows.net/root/sshsearch/internal/metrics"
	"gitlab.bluewillows.net/root/sshsearch/internal/searchprovider"
	"gitlab.bluewillows.net/root/sshsearch/pkg/source"
)

// Readiness status values.
const (
	StatusReady    = "ready"
	StatusDegraded = "degraded"
	StatusNotReady = "not_ready"
)

// maxActivateBody bounds the size of an activation request.
const maxActivateBody = 64 << 10

// Activation rejection reasons reported in metrics.
const (
	rejectOrigin      = "origin"
	rejectContentType = "content_type"
	rejectHost        = "host"
	rejectBody        = "body"
	rejectRecord      = "record"
)

// SearchProvider is what the search endpoints need. *searchprovider.Provider
// implements it.
type SearchProvider interface {
	InitialResultSet(terms []string) source.HostRecords
	ResultMeta(r source.HostRecord) searchprovider.ResultMeta
	Activate(ctx context.Context, r source.HostRecord) error
}

// Directory is the state /ready and /sources report on.
// *directory.Directory implements it.
type Directory interface {
	IsRunning() bool
	AnyExists() bool
	Status() []directory.SourceStatus
}

// Response is the /health response.
type Response struct {
	Status string `json:"status"`
}

// ReadyResponse is the /ready response.
type ReadyResponse struct {
	Status  string                   `json:"status"`
	Message string                   `json:"message,omitempty"`
	Sources []directory.SourceStatus `json:"sources,omitempty"`
}

// SearchResult is one entry of a /search response.
type SearchResult struct {
	User string `json:"user"`
	Host string `json:"host"`
	Port string `json:"port"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// ErrorResponse is returned with 4xx and 5xx statuses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server provides the HTTP API on the loopback interface.
type Server struct {
	port     int
	mux      *http.ServeMux
	server   *http.Server
	listener net.Listener
	logger   *slog.Logger

	provider SearchProvider
	dir      Directory
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

// WithDirectory sets the directory reported by /ready and /sources.
// Without one /ready always answers ready and /sources is 404.
func WithDirectory(dir Directory) Option {
	return func(s *Server) {
		s.dir = dir
	}
}

// New creates a server for 127.0.0.1:port. Port 0 picks a free port.
func New(port int, provider SearchProvider, opts ...Option) *Server {
	s := &Server{
		port:     port,
		mux:      http.NewServeMux(),
		logger:   slog.Default(),
		provider: provider,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler serving every endpoint.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/ready", s.handleReady)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /search", s.loopbackOnly(s.handleSearch))
	s.mux.HandleFunc("POST /activate", s.loopbackOnly(s.handleActivate))
	s.mux.HandleFunc("GET /sources", s.loopbackOnly(s.handleSources))
}

// loopbackOnly refuses requests whose Host header does not name a loopback
// address. A DNS-rebound name resolves to 127.0.0.1 but still carries the
// attacker's host name.
func (s *Server) loopbackOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !isLoopbackHost(r.Host) {
			if r.URL.Path == "/activate" {
				metrics.ActivationsRejectedTotal.WithLabelValues(rejectHost).Inc()
			}
			s.logger.Warn("rejected request for non-loopback host",
				slog.String("host", r.Host),
				slog.String("path", r.URL.Path),
			)
			writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "host not allowed"})
			return
		}
		next(w, r)
	}
}

// isLoopbackHost reports whether a Host header value names the local
// machine: "localhost" or a loopback IP, with or without a port.
func isLoopbackHost(hostport string) bool {
	host := hostport
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")

	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Response{Status: "healthy"})
}

// handleReady reports not_ready until the directory has started, and
// degraded while none of the source files exist. Degraded still answers 200
// because queries work, they just return nothing.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.dir == nil {
		writeJSON(w, http.StatusOK, ReadyResponse{Status: StatusReady})
		return
	}

	resp := ReadyResponse{Status: StatusReady, Sources: s.dir.Status()}
	code := http.StatusOK

	switch {
	case !s.dir.IsRunning():
		resp.Status = StatusNotReady
		resp.Message = "host directory not started"
		code = http.StatusServiceUnavailable
		s.logger.Warn("readiness check failed", slog.String("reason", resp.Message))
	case !s.dir.AnyExists():
		resp.Status = StatusDegraded
		resp.Message = "none of the source files exist"
		s.logger.Debug("degraded state detected", slog.String("reason", resp.Message))
	}

	writeJSON(w, code, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	terms := searchprovider.SplitTerms(r.URL.Query().Get("q"))
	records := s.provider.InitialResultSet(terms)

	results := make([]SearchResult, 0, len(records))
	for _, rec := range records {
		meta := s.provider.ResultMeta(rec)
		results = append(results, SearchResult{
			User: rec.User,
			Host: rec.Host,
			Port: rec.Port,
			Name: meta.Name,
			Icon: meta.Icon,
		})
	}

	writeJSON(w, http.StatusOK, results)
}

// handleActivate launches a session for the posted record.
//
// Browsers attach Origin to cross-site POSTs and can only send a JSON
// content type after a CORS preflight, which this server never answers.
// Requiring both closes the simple-request path from web pages.
func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	if origin := r.Header.Get("Origin"); origin != "" {
		s.reject(w, http.StatusForbidden, rejectOrigin, "cross-origin requests are not accepted")
		return
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		s.reject(w, http.StatusUnsupportedMediaType, rejectContentType, "content type must be application/json")
		return
	}

	var rec source.HostRecord
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxActivateBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		s.reject(w, http.StatusBadRequest, rejectBody, "invalid request body: "+err.Error())
		return
	}
	if rec.Port == "" {
		rec.Port = source.DefaultPort
	}
	if err := rec.Validate(); err != nil {
		s.reject(w, http.StatusBadRequest, rejectRecord, err.Error())
		return
	}

	if err := s.provider.Activate(r.Context(), rec); err != nil {
		var verr *source.RecordValidationError
		if errors.As(err, &verr) {
			s.reject(w, http.StatusBadRequest, rejectRecord, err.Error())
			return
		}
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, s.provider.ResultMeta(rec))
}

func (s *Server) reject(w http.ResponseWriter, code int, reason, msg string) {
	metrics.ActivationsRejectedTotal.WithLabelValues(reason).Inc()
	s.logger.Warn("rejected activation request",
		slog.String("reason", reason),
		slog.String("error", msg),
	)
	writeJSON(w, code, ErrorResponse{Error: msg})
}

func (s *Server) handleSources(w http.ResponseWriter, _ *http.Request) {
	if s.dir == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "source status not available"})
		return
	}
	writeJSON(w, http.StatusOK, s.dir.Status())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Start binds the listener and serves in a goroutine. Binding errors are
// returned; serving errors are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", s.port))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", s.port, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.logger.Info("http server starting", slog.String("addr", ln.Addr().String()))
		if err := s.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
