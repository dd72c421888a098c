package http

import (
	"context"
	"net/http"
	"time"

	"saldo/internal/balance"
	"saldo/internal/cache"
	"saldo/internal/core"
	applog "saldo/internal/log"
	"saldo/internal/middleware/ratelimit"
	"saldo/internal/middleware/security"
	"saldo/internal/middleware/trace"
	"saldo/internal/services"
)

// Options tunes the server. Zero values select defaults.
type Options struct {
	Currency  string
	CacheSize int
	CacheTTL  time.Duration
	Logger    *applog.Logger
	// Today overrides the current day, for tests.
	Today func() core.Date
}

type Server struct {
	http.Server
	svc      *services.TransactionService
	currency string
	today    func() core.Date

	calendarCache *cache.Memo[calendarView]
	seriesCache   *cache.Memo[[]balance.Point]
	cacheManager  *cache.Manager

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	stopBackground context.CancelFunc
}

func NewServer(addr string, svc *services.TransactionService, opts Options) *Server {
	if opts.Currency == "" {
		opts.Currency = core.DefaultCurrency
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 64
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.Today == nil {
		opts.Today = core.Today
	}

	calendarLRU := cache.NewLRUCache[calendarView](opts.CacheSize, opts.CacheTTL)
	seriesLRU := cache.NewLRUCache[[]balance.Point](opts.CacheSize, opts.CacheTTL)
	manager := cache.NewManager()
	manager.Register(calendarLRU)
	manager.Register(seriesLRU)

	s := &Server{
		svc:           svc,
		currency:      opts.Currency,
		today:         opts.Today,
		calendarCache: cache.NewMemo[calendarView](calendarLRU),
		seriesCache:   cache.NewMemo[[]balance.Point](seriesLRU),
		cacheManager:  manager,
		limiter:       ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:      security.NewDetector(),
		tracer:        trace.NewMiddleware(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	mux.HandleFunc("GET /api/series", s.handleSeries)
	mux.HandleFunc("GET /api/summary", s.handleSummary)

	mux.HandleFunc("GET /api/export.csv", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)

	onLimit := func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.detector.ExtractClientIP(r))
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
	}

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, onLimit)(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = s.detector.Middleware(handler)
	handler = applog.Middleware(opts.Logger, trace.FromRequest, s.detector.ExtractClientIP)(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// StartBackground runs cache and rate limiter cleanup until Shutdown.
func (s *Server) StartBackground(ctx context.Context) {
	ctx, s.stopBackground = context.WithCancel(ctx)
	go s.cacheManager.Run(ctx, 5*time.Minute)
	go s.limiter.Run(ctx)
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.stopBackground != nil {
		s.stopBackground()
	}
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if err := s.svc.Ping(ctx); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err.Error())
		ErrorResponse(http.StatusServiceUnavailable, "store unavailable").Write(w)
		return
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}
