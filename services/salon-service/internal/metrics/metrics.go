package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "glamflow"

var (
	once sync.Once

	pushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_pushes_total",
			Help:      "Snapshots received from the record store by resource and outcome.",
		},
		[]string{"resource", "outcome"},
	)

	connected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sync_connected",
			Help:      "1 while every watched resource is healthy.",
		},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Booking attempts by result.",
		},
		[]string{"result"},
	)

	lookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Tracking lookups by the source that answered.",
		},
		[]string{"source"},
	)

	fallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "concierge_fallbacks_total",
			Help:      "Canned concierge replies by kind.",
		},
		[]string{"kind"},
	)

	viewers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_viewers",
			Help:      "Connected live feed viewers by audience.",
		},
		[]string{"audience"},
	)

	outboxPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_published_total",
			Help:      "Appointment events published to Kafka.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(pushes, connected, bookings, lookups, fallbacks, viewers, outboxPublished)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func IncPush(resource, outcome string) {
	pushes.WithLabelValues(resource, outcome).Inc()
}

func SetConnected(ok bool) {
	if ok {
		connected.Set(1)
		return
	}
	connected.Set(0)
}

func IncBooking(result string) {
	bookings.WithLabelValues(result).Inc()
}

func IncLookup(source string) {
	lookups.WithLabelValues(source).Inc()
}

func IncFallback(kind string) {
	fallbacks.WithLabelValues(kind).Inc()
}

func AddViewers(audience string, delta int) {
	viewers.WithLabelValues(audience).Add(float64(delta))
}

func AddOutboxPublished(n int) {
	outboxPublished.Add(float64(n))
}
