package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/governa/governa/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// sessionUserKey is the context key for storing the authenticated session user.
const sessionUserKey contextKey = "session_user"

// SessionUser extracts the authenticated user from the context.
// Returns nil if the request carries no valid session.
func SessionUser(ctx context.Context) *auth.SessionUser {
	user, _ := ctx.Value(sessionUserKey).(*auth.SessionUser)
	return user
}

// WithSessionUser returns a context carrying the given session user. Exposed
// for handler tests.
func WithSessionUser(ctx context.Context, user *auth.SessionUser) context.Context {
	return context.WithValue(ctx, sessionUserKey, user)
}

// Gate returns the routing gate: it validates the session cookie and either
// enriches the context or redirects.
//
//   - public assets (paths containing a dot, /static/, /metrics, /healthz)
//     and the auth endpoints pass through untouched
//   - an unauthenticated page request is redirected to /login
//   - an unauthenticated /api/ request gets a 401 JSON error instead of a
//     redirect
//   - an authenticated request for /login is redirected back to /
func Gate(sessions *auth.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if isPublicPath(path) {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := sessions.FromRequest(r)
			isLogin := path == "/login"

			if err != nil {
				if isLogin {
					next.ServeHTTP(w, r)
					return
				}
				if strings.HasPrefix(path, "/api/") {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusUnauthorized)
					json.NewEncoder(w).Encode(map[string]string{"error": "Sesión requerida"})
					return
				}
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			if isLogin {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}

			ctx := WithSessionUser(r.Context(), &claims.User)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// isPublicPath reports whether the gate lets the path through with no
// session. File-looking paths (favicon.ico, manifest.json, bundles) stay
// public so the login page can render.
func isPublicPath(path string) bool {
	switch path {
	case "/healthz", "/metrics", "/api/auth/login", "/api/auth/logout", "/api/admin/seed":
		return true
	}
	if strings.HasPrefix(path, "/static/") {
		return true
	}
	return strings.Contains(path, ".")
}
