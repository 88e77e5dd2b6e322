package httpx

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Limiter decides whether key may make another request in its current
// window.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

type Decision struct {
	Allowed   bool
	Remaining int
	// RetryAfter is the time left in the window.
	RetryAfter time.Duration
}

// RateLimit rejects clients over their budget with 429 and a Retry-After
// header. failOpen lets requests through when the limiter itself errors.
func RateLimit(l Limiter, logger *slog.Logger, failOpen bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, err := l.Allow(r.Context(), clientKey(r))
			if err != nil {
				if logger != nil {
					logger.Warn("rate limiter error", "err", err, "fail_open", failOpen)
				}
				if failOpen {
					next.ServeHTTP(w, r)
					return
				}
				http.Error(w, "rate limiter unavailable", http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(d.RetryAfter)))
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func retrySeconds(d time.Duration) int {
	s := int((d + time.Second - 1) / time.Second)
	if s < 1 {
		return 1
	}
	return s
}

// RateLimiter is a fixed-window limiter for a single instance.
type RateLimiter struct {
	limit     int
	window    time.Duration
	now       func() time.Time
	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

type visitor struct {
	count     int
	resetTime time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		limit:    limit,
		window:   window,
		now:      time.Now,
		visitors: map[string]*visitor{},
	}
}

func (rl *RateLimiter) Allow(_ context.Context, key string) (Decision, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > rl.window {
		// Forget expired windows so idle clients do not accumulate.
		for k, v := range rl.visitors {
			if now.After(v.resetTime) {
				delete(rl.visitors, k)
			}
		}
		rl.lastSweep = now
	}
	v := rl.visitors[key]
	if v == nil || now.After(v.resetTime) {
		v = &visitor{resetTime: now.Add(rl.window)}
		rl.visitors[key] = v
	}
	if v.count >= rl.limit {
		return Decision{RetryAfter: v.resetTime.Sub(now)}, nil
	}
	v.count++
	return Decision{Allowed: true, Remaining: rl.limit - v.count, RetryAfter: v.resetTime.Sub(now)}, nil
}

func clientKey(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		parts := strings.Split(ip, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
