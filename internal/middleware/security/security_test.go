package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()
	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct public peer ignores headers", "203.0.113.5:1234", "1.2.3.4", "", "203.0.113.5"},
		{"trusted proxy forwards xff", "10.0.0.2:80", "198.51.100.7, 10.0.0.1", "", "198.51.100.7"},
		{"trusted proxy falls back to x-real-ip", "127.0.0.1:80", "garbage", "198.51.100.8", "198.51.100.8"},
		{"trusted proxy without headers", "192.168.1.1:80", "", "", "192.168.1.1"},
		{"unparseable remote addr", "not-an-ip", "", "", "not-an-ip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, d.ExtractClientIP(r))
		})
	}
}

func TestSuspicious(t *testing.T) {
	d := NewDetector()
	assert.False(t, d.Suspicious(httptest.NewRequest(http.MethodPost, "/expenses/abc/delete", nil)))
	assert.True(t, d.Suspicious(httptest.NewRequest(http.MethodGet, "/.env", nil)))
	assert.True(t, d.Suspicious(httptest.NewRequest(http.MethodGet, "/static/../../etc/passwd", nil)))
	assert.True(t, d.Suspicious(httptest.NewRequest("TRACE", "/", nil)))
	assert.True(t, d.Suspicious(httptest.NewRequest(http.MethodGet, "/?"+strings.Repeat("a", 3000), nil)))
}

func TestDetectorMiddleware(t *testing.T) {
	d := NewDetector()
	h := d.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wp-admin", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, int64(1), d.SuspiciousCount())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ui/report", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "https://unpkg.com")
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
}
