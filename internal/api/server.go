// Package api exposes the contact simulation engine over HTTP. Runs are
// started asynchronously and polled or streamed:
//
//	POST   /api/v1/runs                  start a run, returns {"run_id": ...}
//	GET    /api/v1/runs/{id}             result when done, progress while running
//	DELETE /api/v1/runs/{id}             cancel a run
//	GET    /api/v1/runs/{id}/events      SSE progress stream, ends with done/error
//	GET    /api/v1/runs/{id}/playback    SSE frame stream over the primary timeline
//	POST   /api/v1/catalog/tle           ingest TLE text into the member catalog
//	GET    /api/v1/catalog               list catalog entries
//	GET    /healthz                      liveness probe
//	GET    /metrics                      Prometheus metrics
//
// SSE streams carry type-tagged JSON payloads on "data:" lines, with
// comment lines (":") as keep-alives.
package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/poj1738/satellite-communication-simulator/catalog"
	"github.com/poj1738/satellite-communication-simulator/core"
	"github.com/poj1738/satellite-communication-simulator/internal/logging"
	"github.com/poj1738/satellite-communication-simulator/internal/observability"
)

// Config controls server behaviour. Zero values fall back to the
// defaults noted on each field.
type Config struct {
	Addr string // listen address (default ":8080")

	MaxRuns int // concurrent engine runs (default 4)

	RunsPerMinute float64 // POST /api/v1/runs per client IP (default 30)
	RunBurst      int     // short-term allowance above the sustained rate (default 10)

	// TrustProxy enables X-Forwarded-For / X-Real-IP for client IP
	// extraction. Only set behind a trusted reverse proxy.
	TrustProxy bool

	KeepaliveInterval time.Duration // SSE keep-alive spacing (default 30s)
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.MaxRuns <= 0 {
		c.MaxRuns = 4
	}
	if c.RunsPerMinute <= 0 {
		c.RunsPerMinute = 30
	}
	if c.RunBurst <= 0 {
		c.RunBurst = 10
	}
	if c.KeepaliveInterval <= 0 {
		c.KeepaliveInterval = 30 * time.Second
	}
	return c
}

// Server wires the engine, catalog, and playback surfaces onto an
// http.Server with logging, metrics, and per-IP rate limiting.
type Server struct {
	cfg        Config
	log        logging.Logger
	body       core.Body
	catalog    *catalog.Catalog
	runs       *runManager
	limiter    *ipLimiter
	engineCol  *observability.EngineCollector
	catalogCol *observability.CatalogCollector
	httpServer *http.Server
}

// ServerOption adjusts optional server dependencies.
type ServerOption func(*Server)

// WithBody overrides the central body used for scenario validation and
// engine runs.
func WithBody(b core.Body) ServerOption {
	return func(s *Server) { s.body = b }
}

// WithEngineCollector attaches run and HTTP metrics.
func WithEngineCollector(c *observability.EngineCollector) ServerOption {
	return func(s *Server) { s.engineCol = c }
}

// WithCatalogCollector attaches catalog ingest metrics.
func WithCatalogCollector(c *observability.CatalogCollector) ServerOption {
	return func(s *Server) { s.catalogCol = c }
}

// NewServer builds the server. ctx is the base context for engine runs
// and background sweeps; cancelling it aborts every in-flight run.
func NewServer(ctx context.Context, cfg Config, cat *catalog.Catalog, log logging.Logger, opts ...ServerOption) *Server {
	if ctx == nil {
		ctx = context.Background()
	}
	if cat == nil {
		cat = catalog.New()
	}
	if log == nil {
		log = logging.Noop()
	}

	s := &Server{
		cfg:     cfg.withDefaults(),
		log:     log,
		body:    core.Earth,
		catalog: cat,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.runs = newRunManager(ctx, s.body, s.cfg.MaxRuns, s.engineCol, log)
	s.limiter = newIPLimiter(perMinute(s.cfg.RunsPerMinute), s.cfg.RunBurst)
	go s.limiter.evictLoop(ctx, limiterSweepInterval)

	handler := s.routes()
	handler = s.loggingMiddleware(handler)
	handler = s.metricsMiddleware(handler)
	handler = s.recoveryMiddleware(handler)

	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/runs", s.handleCreateRun)
	mux.HandleFunc("GET /api/v1/runs/{id}", s.handleGetRun)
	mux.HandleFunc("DELETE /api/v1/runs/{id}", s.handleDeleteRun)
	mux.HandleFunc("GET /api/v1/runs/{id}/events", s.handleRunEvents)
	mux.HandleFunc("GET /api/v1/runs/{id}/playback", s.handleRunPlayback)
	mux.HandleFunc("POST /api/v1/catalog/tle", s.handleCatalogIngest)
	mux.HandleFunc("GET /api/v1/catalog", s.handleCatalogList)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	if s.engineCol != nil {
		mux.Handle("GET /metrics", s.engineCol.Handler())
	}

	return mux
}

// Handler returns the fully wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// HTTPServer returns the underlying *http.Server for external control.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown drains the HTTP server. Engine runs keep going until the
// base context passed to NewServer is cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// probePath returns true for paths that should log at debug instead of
// info on every scrape or probe.
func probePath(path string) bool {
	return path == "/healthz" || path == "/metrics"
}

// handlerLabel maps a request path onto a low-cardinality metrics label.
func handlerLabel(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/v1/runs"):
		return "runs"
	case strings.HasPrefix(path, "/api/v1/catalog"):
		return "catalog"
	case path == "/healthz":
		return "healthz"
	case path == "/metrics":
		return "metrics"
	default:
		return "other"
	}
}

// statusRecorder captures the response code for logging and metrics.
// Flush and Unwrap keep SSE handlers working through the wrapper.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error(r.Context(), "handler panic",
					logging.String("path", r.URL.Path),
					logging.Any("panic", rec),
				)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(sr, r)

		s.engineCol.ObserveHTTP(
			handlerLabel(r.URL.Path),
			r.Method,
			strconv.Itoa(sr.statusCode),
			time.Since(start),
		)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, reqLog := logging.WithRequestLogger(r.Context(), s.log)
		ctx = logging.ContextWithLogger(ctx, reqLog)
		w.Header().Set("X-Request-ID", logging.RequestIDFromContext(ctx))

		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(sr, r.WithContext(ctx))

		fields := []logging.Field{
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", sr.statusCode),
			logging.Duration("duration", time.Since(start)),
			logging.String("remote_ip", clientIP(r, s.cfg.TrustProxy)),
		}
		if probePath(r.URL.Path) {
			reqLog.Debug(ctx, "request", fields...)
		} else {
			reqLog.Info(ctx, "request", fields...)
		}
	})
}

// clientIP extracts the caller's address, honouring forwarding headers
// only when trustProxy is set.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if i := strings.IndexByte(xff, ','); i > 0 {
				xff = xff[:i]
			}
			if ip := strings.TrimSpace(xff); ip != "" {
				return ip
			}
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
