package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"networth/internal/cache"
	"networth/internal/log"
	"networth/internal/middleware/ratelimit"
	"networth/internal/middleware/recovery"
	"networth/internal/middleware/security"
	"networth/internal/middleware/trace"
	"networth/internal/sheets"
)

// Server is the persistence API. The calculation store is injected.
type Server struct {
	http.Server

	store    sheets.CalculationStore
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	caches   *cache.Manager
	now      func() time.Time

	shutdownOnce sync.Once
}

// Options tunes a Server. Zero values pick the defaults.
type Options struct {
	Logger             *log.Logger
	RateLimitPerMinute int
	// Caches is stopped on Shutdown when set.
	Caches *cache.Manager
	Now    func() time.Time
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, store sheets.CalculationStore, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		store:    store,
		logger:   opts.Logger.WithComponent(log.ComponentHTTP),
		detector: security.NewDetector(),
		caches:   opts.Caches,
		now:      opts.Now,
	}
	s.limiter = ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: opts.RateLimitPerMinute,
		Methods:           []string{http.MethodPost},
	})
	s.tracer = trace.NewMiddleware(opts.Logger, s.detector.ExtractClientIP)

	r := mux.NewRouter()
	r.Use(
		s.tracer.Middleware,
		recovery.Middleware,
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
		s.detector.Middleware(opts.Logger),
		s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited),
	)

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet, http.MethodHead)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleAPIHealth).Methods(http.MethodGet)
	api.HandleFunc("/net-worth", s.handleCreateCalculation).Methods(http.MethodPost)
	api.HandleFunc("/net-worth/{id}", s.handleGetCalculation).Methods(http.MethodGet)
	api.HandleFunc("/net-worth/{id}/report", s.handleCalculationReport).Methods(http.MethodGet)
	api.HandleFunc("/users/{userId}/net-worth", s.handleListUserCalculations).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		ErrorResponse(http.StatusNotFound, MsgRouteNotFound).Write(w)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, MsgMethodNotAllow).Write(w)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           log.Middleware(s.logger)(r),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		if s.caches != nil {
			s.caches.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics returns the request and security counters.
func (s *Server) Metrics() (trace.Metrics, security.DetectionMetrics, ratelimit.Metrics) {
	return s.tracer.GetMetrics(), s.detector.GetMetrics(), s.limiter.GetMetrics()
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, MsgRateLimited).Write(w)
}
