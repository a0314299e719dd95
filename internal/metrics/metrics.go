package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	fetchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bygolf_portal",
			Name:      "fetch_requests_total",
			Help:      "Count of upstream booking API requests by outcome.",
		},
		[]string{"outcome"},
	)

	refreshCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bygolf_portal",
			Name:      "refresh_cycles_total",
			Help:      "Count of refresh cycles by trigger and outcome.",
		},
		[]string{"trigger", "outcome"},
	)

	visibleBookings = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bygolf_portal",
			Name:      "visible_bookings",
			Help:      "Number of bookings in the current view window.",
		},
	)

	exports = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bygolf_portal",
			Name:      "exports_total",
			Help:      "Count of calendar window exports.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(fetchRequests, refreshCycles, visibleBookings, exports)
	})
}

func IncFetch(outcome string) {
	fetchRequests.WithLabelValues(outcome).Inc()
}

func IncRefresh(trigger, outcome string) {
	refreshCycles.WithLabelValues(trigger, outcome).Inc()
}

func SetVisibleBookings(n int) {
	visibleBookings.Set(float64(n))
}

func IncExport() {
	exports.Inc()
}
