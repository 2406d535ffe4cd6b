package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "booking_assistant"

// Metrics holds the assistant's counters and histograms. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	dialogueTurns   *prometheus.CounterVec
	classifications *prometheus.CounterVec
	formRejections  *prometheus.CounterVec
	bookings        *prometheus.CounterVec
	qaLatency       *prometheus.HistogramVec
	httpRequests    *prometheus.HistogramVec
}

// New registers the metrics with reg, or the default registerer when nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		dialogueTurns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dialogue",
			Name:      "turns_total",
			Help:      "Messages handled, by the route taken",
		}, []string{"route"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intent",
			Name:      "classifications_total",
			Help:      "Intent classifications by result and source (primary, fallback)",
		}, []string{"intent", "source"}),
		formRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "form",
			Name:      "rejections_total",
			Help:      "Answers rejected by field validation",
		}, []string{"field"}),
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "total",
			Help:      "Finalised bookings by outcome",
		}, []string{"status"}),
		qaLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "qa",
			Name:      "latency_seconds",
			Help:      "Latency of document question answering",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 5, 8, 10, 15, 30},
		}, []string{"status"}),
		httpRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.dialogueTurns, m.classifications, m.formRejections, m.bookings, m.qaLatency, m.httpRequests)
	return m
}

func (m *Metrics) ObserveTurn(route string) {
	if m == nil {
		return
	}
	m.dialogueTurns.WithLabelValues(route).Inc()
}

func (m *Metrics) ObserveClassification(intent, source string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(intent, source).Inc()
}

func (m *Metrics) ObserveRejection(field string) {
	if m == nil {
		return
	}
	m.formRejections.WithLabelValues(field).Inc()
}

func (m *Metrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveQA(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.qaLatency.WithLabelValues(status).Observe(d.Seconds())
}

func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Observe(d.Seconds())
}
