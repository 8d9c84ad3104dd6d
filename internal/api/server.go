// Package api exposes the hours ledger over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/balkashynov/volhours/internal/auth"
	"github.com/balkashynov/volhours/internal/ledger"
	"github.com/balkashynov/volhours/internal/logging"
	"github.com/balkashynov/volhours/internal/metrics"
)

// TraceHeader carries the request trace id in both directions
const TraceHeader = "X-Trace-ID"

// Options configures a Server
type Options struct {
	Ledger         *ledger.Service
	Issuer         *auth.Issuer
	Logger         *logrus.Logger
	RateLimitRPS   int // 0 disables rate limiting
	RateLimitBurst int
}

// Server routes HTTP requests to the ledger
type Server struct {
	ledger  *ledger.Service
	auth    *auth.Middleware
	limiter *RateLimiter
	log     *logrus.Logger
	router  chi.Router
}

// NewServer builds the router
func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	s := &Server{
		ledger: opts.Ledger,
		auth:   auth.NewMiddleware(opts.Issuer, log),
		log:    log,
	}
	if opts.RateLimitRPS > 0 {
		s.limiter = NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst, log)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.trace)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.auth.Authenticate)
		if s.limiter != nil {
			r.Use(s.limiter.Handler)
		}

		// Volunteer
		r.Post("/hours/checkin", s.checkIn)
		r.Post("/hours/checkout", s.checkOut)
		r.Post("/hours", s.logHours)
		r.Get("/hours/me", s.myHours)
		r.Get("/hours/me/stats", s.myStats)

		// Admin
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Get("/hours", s.listHours)
			r.Patch("/hours/{id}/approve", s.approve)
			r.Post("/admin/manual-hours", s.manualHours)
			r.Get("/dashboard/stats", s.dashboard)
		})
	})

	s.router = r
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Limiter returns the rate limiter, nil when disabled
func (s *Server) Limiter() *RateLimiter {
	return s.limiter
}

// trace tags the request context with a trace id, reusing the caller's
func (s *Server) trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if traceID == "" {
			traceID = logging.NewTraceID()
		}
		w.Header().Set(TraceHeader, traceID)
		next.ServeHTTP(w, r.WithContext(logging.WithTraceID(r.Context(), traceID)))
	})
}

// instrument records metrics and a log line for every request
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		metrics.IncrementInFlight()
		defer metrics.DecrementInFlight()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		// Route patterns keep label cardinality bounded
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		duration := time.Since(start)
		metrics.RecordHTTPRequest(r.Method, path, status, duration)

		logging.FromContext(r.Context(), s.log).WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   status,
			"duration": duration.String(),
		}).Info("request handled")
	})
}

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}

// respondLedgerError writes a ledger failure with its mapped status
func respondLedgerError(w http.ResponseWriter, err error) {
	respondError(w, ledger.Message(err), statusFor(err))
}

// statusFor maps ledger error kinds to HTTP status codes. Conflicts are
// reported as 400 to match the published contract.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrInvalidInput), errors.Is(err, ledger.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
