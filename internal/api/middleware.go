package api

import (
	"net"
	"net/http"
	"strconv"
	"studyplanner-backend/internal/metrics"
	"studyplanner-backend/pkg/httputil"
	"studyplanner-backend/pkg/log"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// --- Request Logging ---

// RequestLogger logs one structured line per request once it completes.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		log.Infow("HTTP request",
			"status", ww.Status(),
			"latency", time.Since(start).String(),
			"clientIP", r.RemoteAddr,
			"method", r.Method,
			"path", r.URL.Path,
			"bytes", ww.BytesWritten(),
			"requestID", middleware.GetReqID(r.Context()),
		)
	})
}

// --- Metrics ---

// CountRequests records every request in the http_requests_total counter.
func CountRequests(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				// Nothing written, net/http answers 200.
				status = http.StatusOK
			}
			m.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
		})
	}
}

// --- Rate Limiting ---

// limiterPool hands out one token bucket per client key.
type limiterPool struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	rps   float64
	burst int
}

func newLimiterPool(rps float64, burst int) *limiterPool {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return &limiterPool{m: make(map[string]*rate.Limiter), rps: rps, burst: burst}
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.m[key]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(p.rps), p.burst)
	p.m[key] = l
	return l
}

func (p *limiterPool) Allow(key string) bool {
	return p.get(key).Allow()
}

// clientKey identifies the caller. RealIP has already rewritten RemoteAddr
// from the forwarding headers.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMessages limits message posts per client. Only POST requests are
// counted, so the same middleware can wrap a route serving both the page
// and its form action.
func RateLimitMessages(rps float64, burst int) func(http.Handler) http.Handler {
	limiters := newLimiterPool(rps, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost && !limiters.Allow(clientKey(r)) {
				log.Warnf("[RateLimit] Too many messages from %s", clientKey(r))
				w.Header().Set("Retry-After", "1")
				httputil.RespondError(w, http.StatusTooManyRequests, "Too many messages, slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
