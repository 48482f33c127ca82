package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics exposes counters/histograms for the reconciliation engine.
type EngineMetrics struct {
	reasonerCalls   *prometheus.CounterVec
	reasonerLatency *prometheus.HistogramVec
	corrections     *prometheus.CounterVec
	dispatches      *prometheus.CounterVec
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		reasonerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "easyscale",
			Subsystem: "engine",
			Name:      "reasoner_calls_total",
			Help:      "Total reasoner calls by flow and outcome",
		}, []string{"flow", "status"}),
		reasonerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "easyscale",
			Subsystem: "engine",
			Name:      "reasoner_latency_seconds",
			Help:      "Latency of reasoner-backed turns",
			Buckets:   prometheus.DefBuckets,
		}, []string{"flow"}),
		corrections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "easyscale",
			Subsystem: "engine",
			Name:      "corrections_total",
			Help:      "Validator corrections applied to reasoner output",
		}, []string{"flow", "rule"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "easyscale",
			Subsystem: "engine",
			Name:      "dispatches_total",
			Help:      "Routing decisions by selected branch",
		}, []string{"branch"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.reasonerCalls, m.reasonerLatency, m.corrections, m.dispatches)
	return m
}

func (m *EngineMetrics) ObserveReasonerCall(flow, status string) {
	if m == nil {
		return
	}
	m.reasonerCalls.WithLabelValues(flow, status).Inc()
}

func (m *EngineMetrics) ObserveLatency(flow string, seconds float64) {
	if m == nil {
		return
	}
	m.reasonerLatency.WithLabelValues(flow).Observe(seconds)
}

func (m *EngineMetrics) ObserveCorrections(flow string, rules []string) {
	if m == nil {
		return
	}
	for _, rule := range rules {
		m.corrections.WithLabelValues(flow, rule).Inc()
	}
}

func (m *EngineMetrics) ObserveDispatch(branch string) {
	if m == nil {
		return
	}
	if branch == "" {
		branch = "none"
	}
	m.dispatches.WithLabelValues(branch).Inc()
}
