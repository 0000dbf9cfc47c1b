// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TokenVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookly",
		Subsystem: "auth",
		Name:      "token_verifications_total",
		Help:      "Bearer token verifications by required kind and outcome.",
	}, []string{"kind", "outcome"})

	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookly",
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Login attempts by outcome.",
	}, []string{"outcome"})

	Revocations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bookly",
		Subsystem: "auth",
		Name:      "revocations_total",
		Help:      "Tokens added to the revocation list.",
	})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bookly",
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	})

	MailDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookly",
		Subsystem: "mail",
		Name:      "deliveries_total",
		Help:      "Queued mail processed by the worker, by outcome.",
	}, []string{"outcome"})
)
