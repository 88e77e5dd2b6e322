package handlers

import (
	"net/http"

	"github.com/md-rashed-zaman/glamflow/libs/auth"
)

const (
	headerUserID = "X-User-Id"
	headerRole   = "X-Role"
)

// RequireAuth verifies an HS256 bearer token and forwards its subject and
// role as X-User-Id and X-Role. Browsers cannot set headers on websocket
// upgrades, so the token may also arrive as the "token" query parameter.
func RequireAuth(next http.Handler, jwtSecret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
			return
		}
		claims, err := auth.ParseAndVerifyHS256(token, jwtSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		r.Header.Del(headerUserID)
		r.Header.Del(headerRole)
		r.Header.Set(headerUserID, claims.Sub)
		r.Header.Set(headerRole, claims.Role)
		next.ServeHTTP(w, r)
	})
}

func RequireRole(next http.Handler, roles ...string) http.Handler {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := allowed[r.Header.Get(headerRole)]; !ok {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Client guards a route for signed-in clients.
func Client(next http.HandlerFunc, jwtSecret string) http.Handler {
	return RequireAuth(RequireRole(next, auth.RoleClient), jwtSecret)
}

// Admin guards a route for operators.
func Admin(next http.HandlerFunc, jwtSecret string) http.Handler {
	return RequireAuth(RequireRole(next, auth.RoleAdmin), jwtSecret)
}
