package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the scheduling pipeline.
type BookingMetrics struct {
	processedTotal    *prometheus.CounterVec
	stageFailureTotal *prometheus.CounterVec
	mappingMissTotal  *prometheus.CounterVec
	processingLatency prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		processedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agendabridge",
			Subsystem: "scheduling",
			Name:      "events_total",
			Help:      "Total scheduling events processed",
		}, []string{"outcome"}),
		stageFailureTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agendabridge",
			Subsystem: "scheduling",
			Name:      "stage_failures_total",
			Help:      "Pipeline stage failures, terminal and non-fatal",
		}, []string{"stage"}),
		mappingMissTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agendabridge",
			Subsystem: "mapping",
			Name:      "miss_total",
			Help:      "Translation-table misses that passed through",
		}, []string{"field"}),
		processingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agendabridge",
			Subsystem: "scheduling",
			Name:      "processing_seconds",
			Help:      "End-to-end latency of scheduling event processing",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.processedTotal, m.stageFailureTotal, m.mappingMissTotal, m.processingLatency)
	return m
}

func (m *BookingMetrics) ObserveProcessed(outcome string) {
	if m == nil {
		return
	}
	m.processedTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveStageFailure(stage string) {
	if m == nil {
		return
	}
	m.stageFailureTotal.WithLabelValues(stage).Inc()
}

func (m *BookingMetrics) ObserveMappingMiss(field string) {
	if m == nil {
		return
	}
	m.mappingMissTotal.WithLabelValues(field).Inc()
}

func (m *BookingMetrics) ObserveLatency(seconds float64) {
	if m == nil {
		return
	}
	m.processingLatency.Observe(seconds)
}
