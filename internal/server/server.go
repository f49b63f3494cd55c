// Package server exposes the query surface over HTTP.
//
// Routes:
//
//	GET  /healthz
//	GET  /metrics           (when a metrics handler is configured)
//	POST /v1/length         {"n": 3, "permutation": "3,2,1"}
//	POST /v1/words          {"permutation": [3, 2, 1]}
//	POST /v1/product        {"word": "1,1,2"}
//	POST /v1/subwords       {"word": "1,2,1", "target": "2,1,3", "count": false}
//	POST /v1/nonreduced     {"word": [1, 1]}
//	POST /v1/images         {"n": 4, "word": "1,2"}
//
// Words and permutations may be JSON arrays or strings in the CLI syntax.
// When n is omitted it is taken from the permutation size, or from the
// largest generator of the word. Errors are returned as
// {"error": {"code": "INVALID_GENERATOR", "message": "..."}}.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/demazure/pkg/query"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Options configures a Server.
type Options struct {
	// Logger for request logs. Nil uses log.Default().
	Logger *log.Logger

	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler

	// RequestTimeout bounds each request. Zero means no timeout.
	RequestTimeout time.Duration
}

// Server routes HTTP requests to a query.Service.
type Server struct {
	svc    *query.Service
	logger *log.Logger
	router chi.Router
}

// New builds the router.
func New(svc *query.Service, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	r.Get("/healthz", s.handleHealth)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))
		r.Post("/length", s.handleLength)
		r.Post("/words", s.handleWords)
		r.Post("/product", s.handleProduct)
		r.Post("/subwords", s.handleSubwords)
		r.Post("/nonreduced", s.handleNonReduced)
		r.Post("/images", s.handleImages)
	})
	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	populated, err := s.svc.Cache().Populated(r.Context())
	if populated == nil {
		populated = []int{}
	}
	status := map[string]any{
		"status":    "ok",
		"store":     s.svc.Cache().Store().Name(),
		"degraded":  s.svc.Degraded(),
		"populated": populated,
	}
	if err != nil {
		status["status"] = "store unavailable"
		writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
