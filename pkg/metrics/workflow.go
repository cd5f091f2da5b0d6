package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkflowMetrics records supply-chain state changes and gateway latency.
type WorkflowMetrics struct {
	orderTransitions *prometheus.CounterVec
	requestDecisions *prometheus.CounterVec
	charges          *prometheus.CounterVec
	gatewayDuration  *prometheus.HistogramVec
	reconciliations  *prometheus.CounterVec
	httpRequests     *prometheus.HistogramVec
}

// NewWorkflowMetrics registers the workflow metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	m := &WorkflowMetrics{
		orderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Order status transitions applied.",
		}, []string{"from", "to"}),
		requestDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "request_decisions_total",
			Help: "Replenishment request decisions by resulting status.",
		}, []string{"status"}),
		charges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_charges_total",
			Help: "Order charge attempts by outcome.",
		}, []string{"outcome"}),
		gatewayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payment_gateway_duration_seconds",
			Help:    "Latency of payment gateway calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"gateway"}),
		reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_reconciliations_total",
			Help: "Delivered orders applied to retailer stock by movement action.",
		}, []string{"action"}),
		httpRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "API request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.orderTransitions, m.requestDecisions, m.charges, m.gatewayDuration, m.reconciliations, m.httpRequests)
	return m
}

func (m *WorkflowMetrics) OrderTransition(from, to string) {
	if m == nil || m.orderTransitions == nil {
		return
	}
	m.orderTransitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func (m *WorkflowMetrics) RequestDecision(status string) {
	if m == nil || m.requestDecisions == nil {
		return
	}
	m.requestDecisions.WithLabelValues(normalizeLabel(status)).Inc()
}

// Charge counts a charge attempt; outcome is "success", "declined" or "error".
func (m *WorkflowMetrics) Charge(outcome string) {
	if m == nil || m.charges == nil {
		return
	}
	m.charges.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *WorkflowMetrics) ObserveGateway(gateway string, duration time.Duration) {
	if m == nil || m.gatewayDuration == nil {
		return
	}
	m.gatewayDuration.WithLabelValues(normalizeLabel(gateway)).Observe(duration.Seconds())
}

func (m *WorkflowMetrics) Reconciliation(action string) {
	if m == nil || m.reconciliations == nil {
		return
	}
	m.reconciliations.WithLabelValues(normalizeLabel(action)).Inc()
}

// ObserveRequest records one served request. route is the matched pattern,
// never the raw path.
func (m *WorkflowMetrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if m == nil || m.httpRequests == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, normalizeLabel(route), strconv.Itoa(status)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
