package prometheus

import (
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Domain counters exported on /metrics.
var (
	// Redirects by outcome: found, not_found, error.
	Redirects = promauto.NewCounterVec(prom.CounterOpts{
		Name: "linklytics_redirects_total",
		Help: "Redirect requests by outcome.",
	}, []string{"status"})

	// Lookup-cache outcomes on the redirect path: hit, miss, filtered.
	CacheLookups = promauto.NewCounterVec(prom.CounterOpts{
		Name: "linklytics_cache_lookups_total",
		Help: "Alias cache lookups by result.",
	}, []string{"result"})

	ClicksPublished = promauto.NewCounter(prom.CounterOpts{
		Name: "linklytics_clicks_published_total",
		Help: "Click events placed on the durable queue.",
	})

	// Consumer outcomes: stored, dropped, malformed, retried.
	ClicksConsumed = promauto.NewCounterVec(prom.CounterOpts{
		Name: "linklytics_clicks_consumed_total",
		Help: "Click queue deliveries by processing result.",
	}, []string{"result"})
)
