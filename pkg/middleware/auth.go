package middleware

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/diagnosis/restaurant-management/pkg/auth"
	"github.com/diagnosis/restaurant-management/pkg/logger"
	"github.com/diagnosis/restaurant-management/pkg/metrics"
	"github.com/diagnosis/restaurant-management/pkg/ratelimit"
	"github.com/diagnosis/restaurant-management/pkg/response"
)

// RequireJWT rejects requests without a valid bearer token and stores the
// claims on the request context.
func RequireJWT(parser auth.Parser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				response.Unauthorized(w, "Missing or invalid authorization header")
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			claims, err := parser.Parse(token)
			if err != nil {
				logger.DebugContext(r.Context(), "Rejected bearer token", "error", err)
				response.Unauthorized(w, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), logger.UserIDKey, claims.Subject)
			ctx = auth.WithClaims(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit limits requests per client IP and route. A nil limiter disables it;
// limiter errors let the request through.
func RateLimit(limiter ratelimit.Limiter, service string, requests int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := service + ":" + r.URL.Path + ":" + ClientIP(r)

			allowed, err := limiter.Allow(r.Context(), key, requests, window)
			if err != nil {
				logger.ErrorContext(r.Context(), "Rate limit check failed", "error", err)
			} else if !allowed {
				metrics.RateLimited.WithLabelValues(service, r.URL.Path).Inc()
				w.Header().Set("Retry-After", retryAfter(window))
				response.TooManyRequests(w, "Too many requests. Please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func retryAfter(window time.Duration) string {
	secs := int(window.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// ClientIP returns the caller's address for rate limiting. Forwarding headers
// are honoured only when the peer is loopback or private, i.e. the gateway,
// and then only the right-most X-Forwarded-For hop, which the gateway appends.
func ClientIP(r *http.Request) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}
	if !internalPeer(peer) {
		return peer
	}

	if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
		last := xff[len(xff)-1]
		if idx := strings.LastIndex(last, ","); idx != -1 {
			last = last[idx+1:]
		}
		if ip := strings.TrimSpace(last); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}

func internalPeer(host string) bool {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	return addr.IsLoopback() || addr.IsPrivate()
}
