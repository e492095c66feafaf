package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records checkout outcomes and stock ledger activity.
type CheckoutMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
	ledger   *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_outcomes_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	ledger := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_ledger_operations_total",
		Help: "Stock ledger operations by kind and result.",
	}, []string{"op", "result"})
	reg.MustRegister(duration, outcomes, ledger)
	return &CheckoutMetrics{
		duration: duration,
		outcomes: outcomes,
		ledger:   ledger,
	}
}

// ObserveCheckout counts a checkout attempt and records its duration.
func (c *CheckoutMetrics) ObserveCheckout(outcome string, duration time.Duration) {
	if c == nil || c.outcomes == nil {
		return
	}
	label := normalizeLabel(outcome)
	c.outcomes.WithLabelValues(label).Inc()
	c.duration.WithLabelValues(label).Observe(duration.Seconds())
}

// IncLedger counts a ledger operation such as ("reduce", "ok").
func (c *CheckoutMetrics) IncLedger(op, result string) {
	if c == nil || c.ledger == nil {
		return
	}
	c.ledger.WithLabelValues(normalizeLabel(op), normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
