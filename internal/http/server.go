// Package http exposes the JSON API over a chi router.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"mosques/internal/auth"
	applog "mosques/internal/log"
	"mosques/internal/metrics"
	"mosques/internal/middleware/ratelimit"
	"mosques/internal/middleware/security"
	"mosques/internal/middleware/trace"
	"mosques/internal/services"
)

type Deps struct {
	Services *services.Services
	Tokens   *auth.Issuer
	Logger   *applog.Logger
	// Metrics is optional; /metrics is only mounted when set.
	Metrics        *metrics.Metrics
	TrustedProxies []string
	LoginRateLimit int
	// Ready reports whether the backing store answers. Nil means always
	// ready.
	Ready func(ctx context.Context) error
}

type Server struct {
	http.Server

	svc          *services.Services
	tokens       *auth.Issuer
	metrics      *metrics.Metrics
	detector     *security.Detector
	loginLimiter *ratelimit.Limiter
	ready        func(ctx context.Context) error
	started      time.Time
	now          func() time.Time

	shutdownOnce sync.Once
}

// NewServer wires the routes and middleware chain.
func NewServer(addr string, d Deps) (*Server, error) {
	detector, err := security.NewDetector(d.TrustedProxies)
	if err != nil {
		return nil, err
	}
	logger := d.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	s := &Server{
		svc:          d.Services,
		tokens:       d.Tokens,
		metrics:      d.Metrics,
		detector:     detector,
		loginLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: d.LoginRateLimit}),
		ready:        d.Ready,
		started:      time.Now(),
		now:          time.Now,
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

func (s *Server) routes(logger *applog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(applog.Middleware(logger))
	r.Use(trace.Middleware)
	r.Use(applog.AccessLog(s.detector.ExtractClientIP))
	r.Use(s.metrics.Middleware(routePattern))
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, msgNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	requireAuth := auth.RequireAuth(s.tokens)
	limitLogin := s.loginLimiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusTooManyRequests, msgTooManyAttempts)
	})

	r.Route("/auth", func(r chi.Router) {
		r.With(limitLogin).Post("/login", s.handleLogin)
		r.With(requireAuth).Post("/change-password", s.handleChangePassword)
	})

	r.Route("/user", func(r chi.Router) {
		r.Get("/governorates-zones", s.handleGovernoratesZones)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/add-receipt", s.handleAddReceipt)
			r.Get("/receipts", s.handleMyReceipts)
			r.Get("/materials", s.handleListMaterials)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireAuth, auth.RequireAdmin)

		r.Post("/add-user", s.handleAddUser)
		r.Get("/users", s.handleListUsers)

		r.Post("/add-material", s.handleAddMaterial)
		r.Get("/materials", s.handleListMaterials)
		r.Put("/update-material/{id}", s.handleUpdateMaterial)
		r.Delete("/delete-material/{id}", s.handleDeleteMaterial)
		r.Get("/allocations/{mosque}", s.handleAllocations)

		r.Get("/search-receipts", s.handleSearchReceipts)

		r.Route("/reports", func(r chi.Router) {
			r.Get("/summary", s.handleReportSummary)
			r.Get("/by-month", s.handleReportByMonth)
			r.Get("/by-governorate", s.handleReportByGovernorate)
			r.Get("/by-mosque", s.handleReportByMosque)
			r.Get("/materials-by-governorate", s.handleReportMaterialsByGovernorate)
			r.Post("/update-all", s.handleUpdateAllReports)
			r.Get("/sheet-data", s.handleSheetData)
			r.Get("/export", s.handleExport)
		})
	})
	return r
}

// Shutdown stops the login limiter and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.loginLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
