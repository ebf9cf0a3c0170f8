package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

// authMiddleware validates a Bearer token or Basic credentials using
// constant-time comparison. Failures are logged with the remote address.
func authMiddleware(cfg AuthConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")

			if auth != "" && cfg.BearerToken != "" {
				if token, ok := strings.CutPrefix(auth, "Bearer "); ok && constantTimeEqual(token, cfg.BearerToken) {
					next.ServeHTTP(w, r)
					return
				}
			}

			if auth != "" && cfg.BasicUser != "" && cfg.BasicPass != "" {
				user, pass, ok := r.BasicAuth()
				if ok && constantTimeEqual(user, cfg.BasicUser) && constantTimeEqual(pass, cfg.BasicPass) {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.Warn("admin: authentication failed",
				"remote_addr", r.RemoteAddr, "method", r.Method, "path", r.URL.Path)
			w.Header().Set("WWW-Authenticate", `Bearer realm="cronox"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		})
	}
}

// constantTimeEqual compares two strings in constant time.
func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
