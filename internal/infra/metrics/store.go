// File: internal/infra/metrics/store.go
package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(storeEvictionsTotal, storeDegraded, storeWritesTotal)
}

var (
	storeEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "job_store_evictions_total",
			Help: "Job records evicted by the retention policy.",
		},
	)

	storeDegraded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "job_store_degraded",
			Help: "1 when the store has switched to the in-memory fallback.",
		},
	)

	storeWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_store_writes_total",
			Help: "Store writes by medium.",
		},
		[]string{"medium"}, // redis|memory
	)
)

func AddEvictions(n int) {
	if n > 0 {
		storeEvictionsTotal.Add(float64(n))
	}
}

func SetStoreDegraded(degraded bool) {
	if degraded {
		storeDegraded.Set(1)
		return
	}
	storeDegraded.Set(0)
}

func IncStoreWrite(medium string) {
	storeWritesTotal.WithLabelValues(norm(medium)).Inc()
}
