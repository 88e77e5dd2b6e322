package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy defines the CORS headers to emit for matching origins. An origin
// entry may be "*" or use a leading wildcard label, e.g.
// "https://*.glamflow.example".
type CORSPolicy struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

type originMatcher struct {
	any      bool
	exact    map[string]bool
	suffixes []originSuffix
}

type originSuffix struct {
	scheme string
	domain string // ".glamflow.example"
}

func newOriginMatcher(origins []string) originMatcher {
	m := originMatcher{exact: map[string]bool{}}
	for _, o := range normalizeList(origins) {
		o = strings.ToLower(o)
		switch {
		case o == "*":
			m.any = true
		case strings.Contains(o, "://*."):
			scheme, host, _ := strings.Cut(o, "://*")
			m.suffixes = append(m.suffixes, originSuffix{scheme: scheme, domain: host})
		default:
			m.exact[o] = true
		}
	}
	return m
}

func (m originMatcher) match(origin string) bool {
	if m.any {
		return true
	}
	origin = strings.ToLower(origin)
	if m.exact[origin] {
		return true
	}
	for _, s := range m.suffixes {
		scheme, host, ok := strings.Cut(origin, "://")
		if ok && scheme == s.scheme && strings.HasSuffix(host, s.domain) && len(host) > len(s.domain) {
			return true
		}
	}
	return false
}

// WithCORS adds CORS handling. With no allowed origins it is a no-op.
func WithCORS(cfg CORSPolicy) Middleware {
	if len(normalizeList(cfg.AllowedOrigins)) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	origins := newOriginMatcher(cfg.AllowedOrigins)
	allowedMethods := strings.Join(normalizeList(cfg.AllowedMethods), ", ")
	allowedHeaders := strings.Join(normalizeList(cfg.AllowedHeaders), ", ")
	exposedHeaders := strings.Join(normalizeList(cfg.ExposedHeaders), ", ")
	maxAge := int(cfg.MaxAge.Seconds())

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || !origins.match(origin) {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			if origins.any && !cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
			}
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")
				if allowedMethods != "" {
					h.Set("Access-Control-Allow-Methods", allowedMethods)
				}
				if allowedHeaders != "" {
					h.Set("Access-Control-Allow-Headers", allowedHeaders)
				}
				if maxAge > 0 {
					h.Set("Access-Control-Max-Age", strconv.Itoa(maxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if exposedHeaders != "" {
				h.Set("Access-Control-Expose-Headers", exposedHeaders)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
