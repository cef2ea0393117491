package nino

import (
	"net/http"
	"strconv"

	"github.com/advdv/bwalk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors of a ninoverse process. Each app gets its own
// registry so tests can run apps side by side.
type Metrics struct {
	Registry *prometheus.Registry

	served     *prometheus.CounterVec
	connErrors *prometheus.CounterVec
	duration   prometheus.Histogram
	published  *prometheus.CounterVec
	consumed   prometheus.Counter
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		served: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nino",
			Name:      "connections_served_total",
			Help:      "Connections that were answered, by response status.",
		}, []string{"status"}),
		connErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nino",
			Name:      "connection_errors_total",
			Help:      "Connections that failed, by error kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nino",
			Name:      "connection_duration_seconds",
			Help:      "Time spent serving a connection.",
			Buckets:   prometheus.DefBuckets,
		}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nino",
			Name:      "broker_published_total",
			Help:      "Messages handed to the broker, by sender and result.",
		}, []string{"sender", "result"}),
		consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nino",
			Name:      "broker_consumed_total",
			Help:      "Messages consumed from the broker queue.",
		}),
	}

	m.Registry.MustRegister(
		m.served, m.connErrors, m.duration, m.published, m.consumed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) observeServed(info bwalk.ConnInfo) {
	m.served.WithLabelValues(strconv.Itoa(info.Status)).Inc()
	m.duration.Observe(info.Duration.Seconds())
}

func (m *Metrics) observeConnError(err error) {
	m.connErrors.WithLabelValues(bwalk.KindOf(err).String()).Inc()
}

func (m *Metrics) observePublished(sender string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}

	m.published.WithLabelValues(sender, result).Inc()
}

func (m *Metrics) observeConsumed() {
	m.consumed.Inc()
}
