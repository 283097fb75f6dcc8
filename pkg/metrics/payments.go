package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Reconciliation channels.
const (
	ChannelClient  = "client"
	ChannelWebhook = "webhook"
)

// PaymentMetrics records reconciliation outcomes per delivery channel.
type PaymentMetrics struct {
	outcomes   *prometheus.CounterVec
	duplicates *prometheus.CounterVec
	rejected   prometheus.Counter
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_reconciliations_total",
		Help: "Payment outcomes applied to orders, by channel and result.",
	}, []string{"channel", "result"})
	duplicates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_reconciliation_duplicates_total",
		Help: "Notifications that found the order already in a terminal payment state.",
	}, []string{"channel"})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_signature_rejections_total",
		Help: "Notifications rejected because the signature did not verify.",
	})
	reg.MustRegister(outcomes, duplicates, rejected)
	return &PaymentMetrics{
		outcomes:   outcomes,
		duplicates: duplicates,
		rejected:   rejected,
	}
}

// ObserveOutcome records an applied payment transition.
func (p *PaymentMetrics) ObserveOutcome(channel, result string) {
	if p == nil || p.outcomes == nil {
		return
	}
	p.outcomes.WithLabelValues(normalizeLabel(channel), normalizeLabel(result)).Inc()
}

// ObserveDuplicate records a notification that raced a completed transition.
func (p *PaymentMetrics) ObserveDuplicate(channel string) {
	if p == nil || p.duplicates == nil {
		return
	}
	p.duplicates.WithLabelValues(normalizeLabel(channel)).Inc()
}

// ObserveSignatureRejection records a forged or corrupted notification.
func (p *PaymentMetrics) ObserveSignatureRejection() {
	if p == nil || p.rejected == nil {
		return
	}
	p.rejected.Inc()
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
