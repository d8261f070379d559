package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/cache"
	applog "fintrack/internal/log"
	"fintrack/internal/store"
	appweb "fintrack/web"
)

// Server embeds http.Server and carries the store, parsed templates, the
// derived-view caches and the rate limiter.
type Server struct {
	http.Server
	templates *template.Template
	store     *store.Store

	rateLimiter *rateLimiter

	dashCache     *cache.LRUCache[dashboardData]
	txCache       *cache.LRUCache[transactionsData]
	budgetCache   *cache.LRUCache[budgetsData]
	insightsCache *cache.LRUCache[insightsData]
	cacheManager  *cache.Manager

	now func() time.Time

	shutdownOnce sync.Once
}

// Options tunes the server; zero values fall back to sane defaults.
type Options struct {
	Addr         string
	CacheTTL     time.Duration
	CacheSize    int
	RateLimitRPM int
	Logger       *applog.Logger
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(st *store.Store, opts Options) *Server {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 128
	}
	if opts.RateLimitRPM <= 0 {
		opts.RateLimitRPM = 60
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    opts.Addr,
			Handler: applog.Middleware(opts.Logger)(mux),
		},
		store:         st,
		rateLimiter:   newRateLimiter(opts.RateLimitRPM),
		dashCache:     cache.NewLRU[dashboardData](opts.CacheSize, opts.CacheTTL),
		txCache:       cache.NewLRU[transactionsData](opts.CacheSize, opts.CacheTTL),
		budgetCache:   cache.NewLRU[budgetsData](opts.CacheSize, opts.CacheTTL),
		insightsCache: cache.NewLRU[insightsData](opts.CacheSize, opts.CacheTTL),
		cacheManager:  cache.NewManager(),
		now:           time.Now,
	}

	s.cacheManager.Register(s.dashCache)
	s.cacheManager.Register(s.txCache)
	s.cacheManager.Register(s.budgetCache)
	s.cacheManager.Register(s.insightsCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	t, err := template.New("fintrack").Funcs(template.FuncMap{
		"usd": formatUSD,
	}).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	// View partials
	mux.HandleFunc("/ui/dashboard", s.withSecurityHeaders(s.handleDashboard))
	mux.HandleFunc("/ui/transactions", s.withSecurityHeaders(s.handleTransactionsView))
	mux.HandleFunc("/ui/budgets", s.withSecurityHeaders(s.handleBudgetsView))
	mux.HandleFunc("/ui/insights", s.withSecurityHeaders(s.handleInsightsView))
	mux.HandleFunc("/ui/transaction-form", s.withSecurityHeaders(s.handleTransactionForm))
	mux.HandleFunc("/ui/budget-form", s.withSecurityHeaders(s.handleBudgetForm))

	// Mutations
	mux.HandleFunc("/transactions", s.withSecurityHeaders(s.handleCreateTransaction))
	mux.HandleFunc("/transactions/update", s.withSecurityHeaders(s.handleUpdateTransaction))
	mux.HandleFunc("/transactions/delete", s.withSecurityHeaders(s.handleDeleteTransaction))
	mux.HandleFunc("/budgets", s.withSecurityHeaders(s.handleCreateBudget))
	mux.HandleFunc("/budgets/update", s.withSecurityHeaders(s.handleUpdateBudget))
	mux.HandleFunc("/budgets/delete", s.withSecurityHeaders(s.handleDeleteBudget))

	return s
}

// Shutdown stops the cleanup routines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting and request
// logging. Rate limiting applies to mutation methods only.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := clientIP(r)

		requestID := generateRequestID()
		logger := applog.FromContext(r.Context()).With(applog.FieldRequestID, requestID)
		ctx := applog.WithLogger(r.Context(), logger)
		r = r.WithContext(ctx)

		logger.InfoContext(ctx, "Request started",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, ip,
			"user_agent", r.Header.Get("User-Agent"))

		if (r.Method == http.MethodPost || r.Method == http.MethodDelete) && !s.rateLimiter.allow(ip) {
			logger.WarnContext(ctx, "Rate limit exceeded", applog.FieldClientIP, ip, applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		logger.InfoContext(ctx, "Request completed",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, duration.Milliseconds(),
			applog.FieldClientIP, ip)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleIndex renders the page shell; the active view loads as a partial.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	view := r.URL.Query().Get("view")
	switch view {
	case "transactions", "budgets", "insights":
	default:
		view = "dashboard"
	}

	data := struct {
		ActiveView string
	}{ActiveView: view}

	if err := s.templates.ExecuteTemplate(w, "index", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// render executes a partial template, degrading to a placeholder on error.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if s.templates == nil {
		_, _ = w.Write([]byte(`<div class="placeholder">Templates not loaded</div>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", name)
		_, _ = w.Write([]byte(`<div class="placeholder">Something went wrong rendering this view</div>`))
	}
}
