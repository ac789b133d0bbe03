// Package api implements the slash-command webhook and admin API using chi.
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Auth is a shared-secret check. A disabled Auth accepts everything.
type Auth struct {
	Enabled bool
	Token   string
}

// Allows reports whether presented matches the secret.
func (a Auth) Allows(presented string) bool {
	if !a.Enabled {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(a.Token)) == 1
}

// AuthMiddleware returns middleware that validates a Bearer token.
// A disabled Auth lets all requests through.
func AuthMiddleware(auth Auth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.Enabled {
				next.ServeHTTP(w, r)
				return
			}
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") || !auth.Allows(strings.TrimPrefix(h, "Bearer ")) {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
