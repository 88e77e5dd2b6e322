package httpx

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter(t *testing.T) {
	start := time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)
	now := start
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }
	h := RateLimit(rl, nil, false)(okHandler())

	steps := []struct {
		at        time.Duration
		want      int
		remaining string
		retry     string
	}{
		{0, http.StatusOK, "1", ""},
		{10 * time.Second, http.StatusOK, "0", ""},
		{20 * time.Second, http.StatusTooManyRequests, "0", "40"},
		{61 * time.Second, http.StatusOK, "1", ""},
	}
	for i, step := range steps {
		now = start.Add(step.at)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != step.want {
			t.Fatalf("request %d: expected %d, got %d", i, step.want, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Remaining"); got != step.remaining {
			t.Fatalf("request %d: expected remaining %s, got %q", i, step.remaining, got)
		}
		if got := rec.Header().Get("Retry-After"); got != step.retry {
			t.Fatalf("request %d: expected Retry-After %q, got %q", i, step.retry, got)
		}
	}
	now = start.Add(62 * time.Second)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.2, 10.0.0.1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected a separate budget per client, got %d", rec.Code)
	}
}

func TestRedisRateLimiterFailOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rl := NewRedisRateLimiter(rdb, 1, time.Minute, "test")

	rec := httptest.NewRecorder()
	RateLimit(rl, logger, true)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected fail-open pass through, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	RateLimit(rl, logger, false)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when failing closed, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := WithCORS(CORSPolicy{
		AllowedOrigins: []string{"https://glamflow.example", "https://*.glamflow.example"},
		AllowedMethods: []string{"GET", "POST"},
		ExposedHeaders: []string{"Retry-After", RequestIDHeader},
		MaxAge:         10 * time.Minute,
	})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/public/book", nil)
	req.Header.Set("Origin", "https://glamflow.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://glamflow.example" || rec.Header().Get("Access-Control-Max-Age") != "600" {
		t.Fatalf("unexpected headers %v", rec.Header())
	}

	cases := []struct {
		origin string
		allow  string
	}{
		{"https://admin.glamflow.example", "https://admin.glamflow.example"},
		{"https://elsewhere.example", ""},
		{"http://admin.glamflow.example", ""},
		{"https://evilglamflow.example", ""},
	}
	for _, tc := range cases {
		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", tc.origin)
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.allow {
			t.Fatalf("origin %s: expected allow %q, got %q", tc.origin, tc.allow, got)
		}
		if tc.allow != "" && rec.Header().Get("Access-Control-Expose-Headers") != "Retry-After, X-Request-Id" {
			t.Fatalf("origin %s: unexpected expose headers %q", tc.origin, rec.Header().Get("Access-Control-Expose-Headers"))
		}
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	cases := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"kept", "req-123.abc", true},
		{"generated", "", false},
		{"unsafe replaced", "bad id\nforged", false},
		{"too long replaced", strings.Repeat("a", 200), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.incoming != "" {
				req.Header.Set(RequestIDHeader, tc.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Header().Get(RequestIDHeader) != seen || seen == "" {
				t.Fatalf("expected echoed id, got header %q context %q", rec.Header().Get(RequestIDHeader), seen)
			}
			if tc.keep && seen != tc.incoming {
				t.Fatalf("expected %q kept, got %q", tc.incoming, seen)
			}
			if !tc.keep && len(seen) != 36 {
				t.Fatalf("expected a generated uuid, got %q", seen)
			}
		})
	}
}

func TestAccessLogAllowsHijack(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			http.Error(w, "no hijacker", http.StatusInternalServerError)
			return
		}
		conn, buf, err := hj.Hijack()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = buf.WriteString("HTTP/1.1 204 No Content\r\nConnection: close\r\n\r\n")
		_ = buf.Flush()
	}), WithRequestID, WithAccessLog(logger))

	srv := httptest.NewServer(h)
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected hijacked 204, got %d", resp.StatusCode)
	}
}
