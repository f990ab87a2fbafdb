package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fintrack/internal/auth"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/reports"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// Server is the JSON API server. Every /expenses, /goals and /dashboard
// route requires a bearer session token; identity resolution happens in
// middleware so handlers only ever see requests with a user attached.
type Server struct {
	http.Server

	storage    *storage.Repository
	expenses   *services.ExpenseService
	goals      *services.GoalService
	reports    *reports.Engine
	limiter    *ratelimit.Limiter
	sessionTTL time.Duration

	shutdownOnce sync.Once
}

// Config carries the server's tunables.
type Config struct {
	Addr              string
	SessionTTL        time.Duration
	RequestsPerMinute int
}

func NewServer(cfg Config, repo *storage.Repository, expenses *services.ExpenseService, goals *services.GoalService, engine *reports.Engine) *Server {
	mux := http.NewServeMux()

	s := &Server{
		storage:    repo,
		expenses:   expenses,
		goals:      goals,
		reports:    engine,
		sessionTTL: cfg.SessionTTL,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RequestsPerMinute,
		}),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /auth/register", withMetrics("/auth/register", s.handleRegister))
	mux.HandleFunc("POST /auth/login", withMetrics("/auth/login", s.handleLogin))
	mux.HandleFunc("POST /auth/logout", withMetrics("/auth/logout", s.requireUser(s.handleLogout)))
	mux.HandleFunc("GET /auth/me", withMetrics("/auth/me", s.requireUser(s.handleMe)))
	mux.HandleFunc("PUT /auth/profile", withMetrics("/auth/profile", s.requireUser(s.handleUpdateProfile)))

	mux.HandleFunc("GET /expenses", withMetrics("/expenses", s.requireUser(s.handleListExpenses)))
	mux.HandleFunc("POST /expenses", withMetrics("/expenses", s.requireUser(s.handleCreateExpense)))
	mux.HandleFunc("GET /expenses/categories/summary", withMetrics("/expenses/categories/summary", s.requireUser(s.handleCategorySummary)))
	mux.HandleFunc("GET /expenses/{id}", withMetrics("/expenses/{id}", s.requireUser(s.handleGetExpense)))
	mux.HandleFunc("PUT /expenses/{id}", withMetrics("/expenses/{id}", s.requireUser(s.handleUpdateExpense)))
	mux.HandleFunc("DELETE /expenses/{id}", withMetrics("/expenses/{id}", s.requireUser(s.handleDeleteExpense)))

	mux.HandleFunc("GET /goals", withMetrics("/goals", s.requireUser(s.handleListGoals)))
	mux.HandleFunc("POST /goals", withMetrics("/goals", s.requireUser(s.handleCreateGoal)))
	mux.HandleFunc("GET /goals/{id}", withMetrics("/goals/{id}", s.requireUser(s.handleGetGoal)))
	mux.HandleFunc("PUT /goals/{id}", withMetrics("/goals/{id}", s.requireUser(s.handleUpdateGoal)))
	mux.HandleFunc("DELETE /goals/{id}", withMetrics("/goals/{id}", s.requireUser(s.handleDeleteGoal)))
	mux.HandleFunc("POST /goals/{id}/contribute", withMetrics("/goals/{id}/contribute", s.requireUser(s.handleContribute)))
	mux.HandleFunc("GET /goals/{id}/contributions", withMetrics("/goals/{id}/contributions", s.requireUser(s.handleListContributions)))
	mux.HandleFunc("PUT /goals/{id}/status", withMetrics("/goals/{id}/status", s.requireUser(s.handleSetGoalStatus)))

	mux.HandleFunc("GET /dashboard/overview", withMetrics("/dashboard/overview", s.requireUser(s.handleOverview)))
	mux.HandleFunc("GET /dashboard/spending-trends", withMetrics("/dashboard/spending-trends", s.requireUser(s.handleSpendingTrends)))
	mux.HandleFunc("GET /dashboard/category-analysis", withMetrics("/dashboard/category-analysis", s.requireUser(s.handleCategoryAnalysis)))
	mux.HandleFunc("GET /dashboard/goals-progress", withMetrics("/dashboard/goals-progress", s.requireUser(s.handleGoalsProgress)))
	mux.HandleFunc("GET /dashboard/monthly-report", withMetrics("/dashboard/monthly-report", s.requireUser(s.handleMonthlyReport)))

	limited := s.limiter.Middleware(extractClientIP, func(w http.ResponseWriter, r *http.Request) {
		rateLimitRejections.Inc()
		w.Header().Set("Retry-After", "60")
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error": "Rate limit exceeded. Please try again later.",
		})
	})

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           withSecurityHeaders(withRequestLog(limited(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the HTTP server and the rate limiter cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// requireUser resolves the bearer token to a user and attaches it to the
// request context. Missing, unknown and expired tokens all fail alike.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Authentication required"})
			return
		}
		user, err := s.storage.UserByToken(r.Context(), token, time.Now().UTC())
		if err != nil {
			writeError(w, r, err)
			return
		}
		next(w, r.WithContext(auth.WithUser(r.Context(), user)))
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDFromContext returns the id attached by withRequestLog, or ""
// outside a request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// generateRequestID creates a unique id for request tracing.
func generateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(b)
}

// withRequestLog tags every request with a tracing id and logs its start
// and completion.
func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"client_ip", extractClientIP(r))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", extractClientIP(r))
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// handleReady reports readiness, checking database connectivity.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.storage.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
