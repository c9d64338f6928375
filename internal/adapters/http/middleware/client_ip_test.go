package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anvkup/avnmusicstudio/internal/core/domain"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "first forwarded entry wins",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1", "X-Real-IP": "198.51.100.2"},
			remoteAddr: "10.0.0.9:5555",
			want:       "203.0.113.7",
		},
		{
			name:       "real ip when no forwarded header",
			headers:    map[string]string{"X-Real-IP": " 198.51.100.2 "},
			remoteAddr: "10.0.0.9:5555",
			want:       "198.51.100.2",
		},
		{
			name:       "empty forwarded entry falls through",
			headers:    map[string]string{"X-Forwarded-For": " , 10.0.0.1"},
			remoteAddr: "192.0.2.1:1234",
			want:       "192.0.2.1",
		},
		{
			name:       "remote addr host",
			remoteAddr: "192.0.2.1:1234",
			want:       "192.0.2.1",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "192.0.2.1",
			want:       "192.0.2.1",
		},
		{
			name:       "ipv6 remote addr",
			remoteAddr: "[2001:db8::1]:443",
			want:       "2001:db8::1",
		},
		{
			name: "nothing known",
			want: domain.AnonymousIdentifier,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, ClientIP(r))
		})
	}
}

func TestWithClientIP(t *testing.T) {
	var got string
	h := WithClientIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClientIPFrom(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.7")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "203.0.113.7", got)
	assert.Equal(t, domain.AnonymousIdentifier, ClientIPFrom(r.Context()))
}

func TestTrustProxyHops(t *testing.T) {
	tests := []struct {
		name      string
		hops      int
		forwarded []string
		want      string
	}{
		{name: "no hops takes first entry", hops: 0, forwarded: []string{"6.6.6.6, 203.0.113.7, 10.0.0.1"}, want: "6.6.6.6"},
		{name: "one proxy", hops: 1, forwarded: []string{"6.6.6.6, 203.0.113.7"}, want: "203.0.113.7"},
		{name: "two proxies", hops: 2, forwarded: []string{"6.6.6.6, 203.0.113.7, 10.0.0.1"}, want: "203.0.113.7"},
		{name: "repeated headers", hops: 1, forwarded: []string{"6.6.6.6", "203.0.113.7"}, want: "203.0.113.7"},
		{name: "fewer entries than hops", hops: 3, forwarded: []string{"203.0.113.7, 10.0.0.1"}, want: "203.0.113.7"},
		{name: "empty trusted entry falls through", hops: 1, forwarded: []string{"6.6.6.6, "}, want: "192.0.2.1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			h := TrustProxyHops(tc.hops)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = ClientIPFrom(r.Context())
			}))

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = "192.0.2.1:1234"
			for _, v := range tc.forwarded {
				r.Header.Add("X-Forwarded-For", v)
			}
			h.ServeHTTP(httptest.NewRecorder(), r)

			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTrustProxyHops_SpoofedEntriesShareOneIdentity(t *testing.T) {
	seen := map[string]bool{}
	h := TrustProxyHops(1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen[ClientIPFrom(r.Context())] = true
	}))

	for _, spoofed := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		r := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
		r.Header.Set("X-Forwarded-For", spoofed+", 203.0.113.7")
		h.ServeHTTP(httptest.NewRecorder(), r)
	}

	assert.Equal(t, map[string]bool{"203.0.113.7": true}, seen)
}
