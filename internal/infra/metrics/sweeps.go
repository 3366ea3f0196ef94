package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		campaignsExpiredTotal,
		sweepRunsTotal,
		cacheRequestsTotal,
	)
}

var (
	campaignsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "campaigns_expired_total",
			Help: "Campaigns deactivated by the expiry sweeper.",
		},
	)

	sweepRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expiry_sweep_runs_total",
			Help: "Expiry sweep runs by result (ok/error).",
		},
		[]string{"result"},
	)

	cacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Cache lookups by entity and result (hit/miss).",
		},
		[]string{"entity", "result"},
	)
)

func IncCampaignsExpired(n int) {
	campaignsExpiredTotal.Add(float64(n))
}

func IncSweepRun(result string) {
	sweepRunsTotal.WithLabelValues(norm(result)).Inc()
}

func IncCacheRequest(entity, result string) {
	cacheRequestsTotal.WithLabelValues(norm(entity), norm(result)).Inc()
}
