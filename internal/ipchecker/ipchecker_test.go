package ipchecker

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	checker, err := New("")
	require.NoError(t, err)
	assert.True(t, checker.IsTrustedSubnetEmpty())

	_, err = New("10.0.0.0/33")
	require.Error(t, err)
}

func TestGetClientIP(t *testing.T) {
	checker, err := New("10.0.0.0/8")
	require.NoError(t, err)

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "real ip header wins", headers: map[string]string{"X-Real-IP": "10.1.1.1", "X-Forwarded-For": "172.16.0.1"}, remote: "192.0.2.1:1234", want: "10.1.1.1"},
		{name: "first forwarded address", headers: map[string]string{"X-Forwarded-For": "10.2.2.2, 172.16.0.1"}, remote: "192.0.2.1:1234", want: "10.2.2.2"},
		{name: "garbage forwarded falls back to remote", headers: map[string]string{"X-Forwarded-For": "nope"}, remote: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "remote address", remote: "10.3.3.3:4000", want: "10.3.3.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/internal/stats", nil)
			req.RemoteAddr = tt.remote
			for key, value := range tt.headers {
				req.Header.Set(key, value)
			}

			ip, err := checker.GetClientIP(req)
			require.NoError(t, err)
			assert.True(t, ip.Equal(net.ParseIP(tt.want)), "got %s", ip)
		})
	}
}

func TestTrustedOnly(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name          string
		trustedSubnet string
		realIP        string
		wantStatus    int
	}{
		{name: "inside subnet", trustedSubnet: "10.0.0.0/8", realIP: "10.20.30.40", wantStatus: http.StatusOK},
		{name: "outside subnet", trustedSubnet: "10.0.0.0/8", realIP: "192.168.1.1", wantStatus: http.StatusForbidden},
		{name: "no subnet configured", trustedSubnet: "", realIP: "10.20.30.40", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker, err := New(tt.trustedSubnet)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodGet, "/api/internal/stats", nil)
			req.Header.Set("X-Real-IP", tt.realIP)
			rec := httptest.NewRecorder()

			checker.TrustedOnly(ok).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

// The proxy sits inside the trusted subnet and overwrites X-Real-IP with the
// address it saw, so its own RemoteAddr never grants access.
func TestTrustedOnlyBehindProxy(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	checker, err := New("192.0.2.0/24")
	require.NoError(t, err)

	tests := []struct {
		name       string
		clientIP   string
		wantStatus int
	}{
		{name: "outside client relayed by the proxy", clientIP: "203.0.113.7", wantStatus: http.StatusForbidden},
		{name: "inside client relayed by the proxy", clientIP: "192.0.2.44", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/internal/stats", nil)
			req.RemoteAddr = "192.0.2.10:41000"
			req.Header.Set("X-Real-IP", tt.clientIP)
			rec := httptest.NewRecorder()

			checker.TrustedOnly(ok).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
