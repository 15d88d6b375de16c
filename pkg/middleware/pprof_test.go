package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serveFrom(h http.Handler, remote, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remote
	h.ServeHTTP(rec, req)
	return rec
}

func TestIPAllowlist(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := IPAllowlist([]string{"10.0.0.0/8", "not-a-cidr", "::1/128"}, discardLogger())(ok)

	tests := []struct {
		name   string
		remote string
		status int
	}{
		{"inside range", "10.1.2.3:5000", http.StatusOK},
		{"ipv6 loopback", "[::1]:5000", http.StatusOK},
		{"outside range", "192.168.1.1:5000", http.StatusForbidden},
		{"unparseable", "garbage", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, serveFrom(h, tt.remote, "/x").Code)
		})
	}
}

func TestIPAllowlist_DeniedBody(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	rec := serveFrom(IPAllowlist([]string{"10.0.0.0/8"}, discardLogger())(ok), "192.168.1.1:1", "/x")

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "FORBIDDEN", body["code"])
}

func TestRegisterPprof(t *testing.T) {
	r := chi.NewRouter()
	require.True(t, RegisterPprof(r, []string{"127.0.0.0/8"}, discardLogger()))

	assert.Equal(t, http.StatusOK, serveFrom(r, "127.0.0.1:1", "/debug/pprof/cmdline").Code)
	assert.Equal(t, http.StatusForbidden, serveFrom(r, "203.0.113.9:1", "/debug/pprof/cmdline").Code)
}

func TestRegisterPprof_NoRanges(t *testing.T) {
	r := chi.NewRouter()
	assert.False(t, RegisterPprof(r, []string{"bogus"}, discardLogger()))
	assert.Equal(t, http.StatusNotFound, serveFrom(r, "127.0.0.1:1", "/debug/pprof/cmdline").Code)
}
