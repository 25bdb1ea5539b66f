// Package metrics exposes Herald's Prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ChangesTotal counts processed stream changes by resulting action.
	ChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "herald_changes_total",
		Help: "Stream changes processed, labelled by classification action.",
	}, []string{"action"})

	// SentTotal counts dispatched notifications by kind.
	SentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "herald_notifications_sent_total",
		Help: "Notifications dispatched, labelled by kind.",
	}, []string{"kind"})

	// DispatchErrors counts failed notifier calls.
	DispatchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "herald_dispatch_errors_total",
		Help: "Notifier calls that failed.",
	})

	// Resubscribes counts stream-level failures that forced a resubscribe.
	Resubscribes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "herald_stream_resubscribes_total",
		Help: "Change-stream failures followed by a resubscribe.",
	})
)

// Handler serves the default registry, for the listener's /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
