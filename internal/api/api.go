// Package api provides the REST API for reading and changing the proxy
// configuration.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/rennerdo30/proxyconf/internal/logging"
	"github.com/rennerdo30/proxyconf/internal/netproxy"
	"github.com/rennerdo30/proxyconf/internal/ratelimit"
)

// ProxyManager is the part of *netproxy.Manager the API drives.
type ProxyManager interface {
	Configuration() netproxy.Configuration
	SetConfiguration(cfg netproxy.Configuration)
	IsDisabled() bool
	SetDisabled(disabled bool)
	IsAuthenticationRequired() bool
}

// API provides the REST API for proxyconf.
type API struct {
	manager     ProxyManager
	token       string
	tokenHash   string
	metrics     http.Handler
	metricsPath string
	limiter     *ratelimit.Limiter
}

// Config holds API configuration.
type Config struct {
	Manager     ProxyManager
	Token       string
	TokenHash   string       // bcrypt hash, checked instead of Token when set
	Metrics     http.Handler // Optional Prometheus handler
	MetricsPath string       // Defaults to /metrics
	RateLimit   ratelimit.Config
}

// New creates a new API.
func New(cfg Config) *API {
	path := cfg.MetricsPath
	if path == "" {
		path = "/metrics"
	}
	return &API{
		manager:     cfg.Manager,
		token:       cfg.Token,
		tokenHash:   cfg.TokenHash,
		metrics:     cfg.Metrics,
		metricsPath: path,
		limiter:     ratelimit.New(cfg.RateLimit),
	}
}

// Router returns the HTTP router for the API.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Group(func(r chi.Router) {
		if a.token != "" || a.tokenHash != "" {
			r.Use(a.authMiddleware)
		}

		r.Get("/api/v1/health", a.handleHealth)
		r.Get("/api/v1/version", a.handleVersion)

		r.Route("/api/v1/proxy", func(r chi.Router) {
			r.Get("/", a.handleGetProxy)
			r.With(a.rateLimitMiddleware).Put("/", a.handleSetProxy)
			r.With(a.rateLimitMiddleware).Put("/disabled", a.handleSetDisabled)
		})

		if a.metrics != nil {
			r.Handle(a.metricsPath, a.metrics)
		}
	})

	return r
}

// Serve listens on addr and serves the API until ctx is cancelled, then
// shuts down gracefully.
func (a *API) Serve(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return a.serve(ctx, listener)
}

func (a *API) serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("API server listening", "address", listener.Addr().String())
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown api server: %w", err)
	}
	return nil
}

func (a *API) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		if !a.validToken(token) {
			a.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *API) validToken(token string) bool {
	if token == "" {
		return false
	}
	if a.tokenHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(a.tokenHash), []byte(token)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) == 1
}

// bcryptCost is the cost factor for API token hashes.
const bcryptCost = 12

// HashToken returns the bcrypt hash to configure as api.token_hash.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// rateLimitMiddleware limits configuration changes per client address.
func (a *API) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.limiter.Allow(clientKey(r)) {
			w.Header().Set("Retry-After", "1")
			a.writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// requestLogger attaches a request-scoped logger to the context and logs
// each request once it completes.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.ContextWith(r.Context(),
			"component", "api",
			"request_id", middleware.GetReqID(r.Context()),
		)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r.WithContext(ctx))

		logging.FromContext(ctx).Debug("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func (a *API) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (a *API) writeError(w http.ResponseWriter, status int, msg string) {
	a.writeJSON(w, status, map[string]string{"error": msg})
}
