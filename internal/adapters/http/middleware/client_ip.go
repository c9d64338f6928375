// Package middleware provides the HTTP middlewares used by the studio API.
package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/anvkup/avnmusicstudio/internal/core/domain"
)

type clientIPKey struct{}

// ClientIP identifies the caller: the first X-Forwarded-For entry, then
// X-Real-IP, then the RemoteAddr host. It falls back to
// domain.AnonymousIdentifier when none of them carries a value.
//
// The first X-Forwarded-For entry is whatever the client sent. Deployments
// behind a known number of proxies should use TrustProxyHops instead.
func ClientIP(r *http.Request) string {
	return clientIP(r, 0)
}

func clientIP(r *http.Request, hops int) string {
	if ip := forwardedFor(r.Header.Values("X-Forwarded-For"), hops); ip != "" {
		return ip
	}

	xRealIP := strings.TrimSpace(r.Header.Get("X-Real-IP"))
	if xRealIP != "" {
		return xRealIP
	}

	remote := strings.TrimSpace(r.RemoteAddr)
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		host = remote
	}
	if host == "" {
		return domain.AnonymousIdentifier
	}
	return host
}

func forwardedFor(values []string, hops int) string {
	var entries []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			entries = append(entries, strings.TrimSpace(part))
		}
	}
	if len(entries) == 0 {
		return ""
	}
	if hops <= 0 || hops > len(entries) {
		return entries[0]
	}
	return entries[len(entries)-hops]
}

// WithClientIP resolves the caller once and stores it in the request context.
func WithClientIP(next http.Handler) http.Handler {
	return TrustProxyHops(0)(next)
}

// TrustProxyHops is WithClientIP for a service running behind hops
// proxies that each append to X-Forwarded-For.
func TrustProxyHops(hops int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), clientIPKey{}, clientIP(r, hops))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIPFrom returns the identifier stored by WithClientIP, or the
// anonymous sentinel when the middleware did not run.
func ClientIPFrom(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok && ip != "" {
		return ip
	}
	return domain.AnonymousIdentifier
}
