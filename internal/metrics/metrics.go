package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searchdeck_search_requests_total",
			Help: "Total number of Custom Search API calls issued",
		},
		[]string{"engine", "status"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "searchdeck_search_duration_seconds",
			Help:    "API-reported search time per call in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"engine"},
	)

	CredentialRotationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searchdeck_credential_rotations_total",
			Help: "Total number of credential pair fallbacks during search",
		},
		[]string{"reason"},
	)

	ProxyFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searchdeck_proxy_fetches_total",
			Help: "Total number of proxied page fetches",
		},
		[]string{"mode", "status"},
	)

	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "searchdeck_proxy_cache_hits_total",
			Help: "Proxy cache lookups served from disk",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "searchdeck_proxy_cache_misses_total",
			Help: "Proxy cache lookups that required a fetch",
		},
	)

	ConfigReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searchdeck_config_reloads_total",
			Help: "Watcher-triggered configuration reloads by file",
		},
		[]string{"file"},
	)
)

// Handler exposes the default registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
