package middleware

import (
	"context"
	"log"
	"net"
	"net/http"

	"github.com/bookly/bookly-api/internal/httperr"
	"github.com/bookly/bookly-api/internal/metrics"
)

// Limiter decides whether one more request for key fits its window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit rejects clients that exceed the limiter's budget with 429. The
// client is identified by the remote IP, so mount chi's RealIP in front of it
// when running behind a proxy. If the limiter itself fails the request is let
// through.
func RateLimit(l Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := l.Allow(r.Context(), clientIP(r))
			if err != nil {
				log.Printf("WARN: %v", err)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				metrics.RateLimited.Inc()
				httperr.Write(w, httperr.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
