// Package server exposes the agent over HTTP and gRPC.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/rfp-agent/constants"
	"github.com/joseph-ayodele/rfp-agent/internal/async"
	"github.com/joseph-ayodele/rfp-agent/internal/common"
	"github.com/joseph-ayodele/rfp-agent/internal/knowledge"
	"github.com/joseph-ayodele/rfp-agent/internal/metrics"
	"github.com/joseph-ayodele/rfp-agent/internal/proposal"
)

type Analyzer interface {
	Analyze(ctx context.Context, path, rfpID string) (proposal.Analysis, error)
}

type Jobs interface {
	Enqueue(ctx context.Context, job async.Job) (string, error)
	Status(id string) (async.JobInfo, bool)
}

type Knowledge interface {
	Search(query string, category constants.Category) ([]knowledge.SearchResult, error)
	Categories() []knowledge.CategoryInfo
}

type API struct {
	cfg      common.ServerConfig
	analyzer Analyzer
	jobs     Jobs
	kb       Knowledge
	logger   *slog.Logger
	now      func() time.Time

	// uploaded documents by rfp id
	mu      sync.RWMutex
	uploads map[string]string
}

func NewAPI(cfg common.ServerConfig, analyzer Analyzer, jobs Jobs, kb Knowledge, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		cfg:      cfg,
		analyzer: analyzer,
		jobs:     jobs,
		kb:       kb,
		logger:   logger,
		now:      time.Now,
		uploads:  make(map[string]string),
	}
}

func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(a.requestID)
	r.Use(a.observe)
	r.Use(middleware.Recoverer)

	origins := a.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "PUT", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", a.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(a.rateLimit())

			r.Post("/rfp/upload", a.handleUpload)
			r.Post("/rfp/{id}/analyze", a.handleAnalyze)

			r.Post("/proposal/generate", a.handleGenerate)
			r.Get("/proposal/{id}/status", a.handleStatus)
			r.Get("/proposal/{id}", a.handleProposal)

			r.Get("/knowledge", a.handleKnowledge)
			r.Get("/knowledge/categories", a.handleCategories)
		})
	})
	return r
}

// NewHTTPServer wraps the API routes with the configured timeouts.
func (a *API) NewHTTPServer() *http.Server {
	return &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       a.cfg.ReadTimeout,
		WriteTimeout:      a.cfg.WriteTimeout,
	}
}

func (a *API) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(common.WithRequestID(r.Context(), id)))
	})
}

func (a *API) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
		a.logger.Info("http request",
			"method", r.Method,
			"route", route,
			"status", code,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", common.RequestIDFromContext(r.Context()),
		)
	})
}

// rateLimit applies one shared token bucket to every API caller.
func (a *API) rateLimit() func(http.Handler) http.Handler {
	if a.cfg.RateLimitRPS <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	burst := a.cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(a.cfg.RateLimitRPS), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				writeJson(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
