package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hackgods/conversational-booking/internal/metrics"
	"github.com/hackgods/conversational-booking/pkg/logger"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDMiddleware adds a unique request ID to each request context
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggingMiddleware logs every request with its status, duration and request
// ID, and records the latency under the matched route pattern.
func LoggingMiddleware(l *zap.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			m.ObserveHTTP(r.Method, route, strconv.Itoa(wrapped.statusCode), duration)
			logger.LogHTTPRequest(l, r.Method, r.URL.Path, wrapped.statusCode, duration.Seconds(),
				zap.String("request_id", GetRequestID(r.Context())))
		})
	}
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// SessionRateLimiter keeps one token bucket per session ID.
type SessionRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*sessionLimiter
	r        rate.Limit
	b        int
	idle     time.Duration
}

type sessionLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewSessionRateLimiter allows rps messages per second per session with the
// given burst. A zero rps disables limiting.
func NewSessionRateLimiter(rps float64, burst int) *SessionRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &SessionRateLimiter{
		limiters: make(map[string]*sessionLimiter),
		r:        rate.Limit(rps),
		b:        burst,
		idle:     10 * time.Minute,
	}
}

func (rl *SessionRateLimiter) allow(sessionID string, now time.Time) bool {
	if rl == nil || rl.r <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	sl, ok := rl.limiters[sessionID]
	if !ok {
		sl = &sessionLimiter{limiter: rate.NewLimiter(rl.r, rl.b)}
		rl.limiters[sessionID] = sl
	}
	sl.lastSeen = now
	return sl.limiter.AllowN(now, 1)
}

// Sweep drops limiters that have been idle for a while. Call it periodically.
func (rl *SessionRateLimiter) Sweep(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	var n int
	for id, sl := range rl.limiters {
		if now.Sub(sl.lastSeen) > rl.idle {
			delete(rl.limiters, id)
			n++
		}
	}
	return n
}

// Run sweeps idle limiters until ctx is done.
func (rl *SessionRateLimiter) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.Sweep(now)
		}
	}
}

// Middleware rejects requests over the session's budget with 429.
func (rl *SessionRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(chi.URLParam(r, "id"), time.Now()) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many messages for this session, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}
