package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	both := AuthConfig{BearerToken: "secret-token", BasicUser: "admin", BasicPass: "pass123"}

	tests := []struct {
		name    string
		cfg     AuthConfig
		prepare func(*http.Request)
		want    int
	}{
		{"valid bearer", both, func(r *http.Request) { r.Header.Set("Authorization", "Bearer secret-token") }, http.StatusOK},
		{"invalid bearer", both, func(r *http.Request) { r.Header.Set("Authorization", "Bearer wrong") }, http.StatusUnauthorized},
		{"valid basic", both, func(r *http.Request) { r.SetBasicAuth("admin", "pass123") }, http.StatusOK},
		{"invalid basic", both, func(r *http.Request) { r.SetBasicAuth("admin", "nope") }, http.StatusUnauthorized},
		{"missing header", both, func(*http.Request) {}, http.StatusUnauthorized},
		{"basic when only bearer", AuthConfig{BearerToken: "t0k3n"}, func(r *http.Request) { r.SetBasicAuth("admin", "t0k3n") }, http.StatusUnauthorized},
		{"bearer when only basic", AuthConfig{BasicUser: "a", BasicPass: "b"}, func(r *http.Request) { r.Header.Set("Authorization", "Bearer b") }, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := authMiddleware(tt.cfg, discardLogger())(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
			tt.prepare(req)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestAuthConfig_IsConfigured(t *testing.T) {
	t.Parallel()

	if (AuthConfig{}).IsConfigured() {
		t.Error("empty config should not be configured")
	}
	if (AuthConfig{BasicUser: "only-user"}).IsConfigured() {
		t.Error("basic auth needs both user and password")
	}
	if !(AuthConfig{BearerToken: "x"}).IsConfigured() {
		t.Error("bearer token should count as configured")
	}
}
