// Package api serves the lead-gen tools over HTTP and WebSocket.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/courseforge/site/internal/leadgen"
)

const (
	maxBodyBytes = 64 << 10
	checkTimeout = 2 * time.Second
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type namedCheck struct {
	name  string
	check HealthCheck
}

// Server holds the HTTP handlers.
type Server struct {
	svc       *leadgen.Service
	validator *validator
	checks    []namedCheck
	origins   []string
	proxies   int
}

// Option configures a Server.
type Option func(*Server)

// WithHealthCheck adds a dependency checked by /readyz.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(s *Server) {
		s.checks = append(s.checks, namedCheck{name: name, check: check})
	}
}

// WithAllowedOrigins sets the browser origins allowed for CORS and WebSocket
// upgrades. "*" allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithTrustedProxies sets how many reverse proxies in front of the server
// append to X-Forwarded-For. With zero, the header is ignored and callers are
// keyed by their socket address.
func WithTrustedProxies(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.proxies = n
		}
	}
}

// New creates a Server for svc.
func New(svc *leadgen.Service, opts ...Option) (*Server, error) {
	v, err := newValidator()
	if err != nil {
		return nil, err
	}
	s := &Server{svc: svc, validator: v}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the routed handler with logging and CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("POST /api/curriculum", s.handleCreateCurriculum)
	mux.HandleFunc("GET /api/curriculum/{token}", s.handleGetCurriculum)
	mux.HandleFunc("GET /api/curriculum/{token}/export", s.handleExportCurriculum)
	mux.HandleFunc("GET /ws/curriculum", s.handleCurriculumStream)

	mux.HandleFunc("POST /api/seo", s.handleCreateSEO)
	mux.HandleFunc("GET /api/seo/{token}", s.handleGetSEO)

	return logRequests(s.cors(mux))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	failed := map[string]string{}
	for _, c := range s.checks {
		if err := c.check(ctx); err != nil {
			slog.Warn("readiness check failed", "check", c.name, "error", err)
			failed[c.name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"checks": failed,
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// clientKey identifies the caller for quota purposes. Entries left of the
// ones written by trusted proxies are client-controlled, so the key is the
// address the outermost trusted proxy saw: the trustedHops-th entry from the
// right. Without trusted proxies, or with a shorter chain, it is the remote IP.
func clientKey(r *http.Request, trustedHops int) string {
	if trustedHops > 0 {
		var hops []string
		for _, v := range r.Header.Values("X-Forwarded-For") {
			for _, part := range strings.Split(v, ",") {
				hops = append(hops, strings.TrimSpace(part))
			}
		}
		if i := len(hops) - trustedHops; i >= 0 && hops[i] != "" {
			return hops[i]
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps service errors to an HTTP status and a client-safe message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, leadgen.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, leadgen.ErrQuotaExceeded):
		return http.StatusTooManyRequests, "generation limit reached, try again later"
	case errors.Is(err, leadgen.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, leadgen.ErrGeneration):
		return http.StatusBadGateway, "generation failed, please retry"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "route", route(r), "status", status, "error", err)
	}
	writeError(w, status, msg)
}

func (s *Server) allowOrigin(origin string) bool {
	return slices.Contains(s.origins, "*") || slices.Contains(s.origins, origin)
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.allowOrigin(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			h.Add("Vary", "Origin")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack lets WebSocket upgrades pass through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" {
			return
		}
		slog.Info("http request",
			"method", r.Method,
			"route", route(r),
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// route returns the matched mux pattern so access tokens in paths stay out of
// the logs.
func route(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return r.URL.Path
}
