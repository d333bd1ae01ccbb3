package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records counters for the order placement pipeline.
type CheckoutMetrics struct {
	ordersPlaced         *prometheus.CounterVec
	checkoutRejected     *prometheus.CounterVec
	orderNumberDraws     prometheus.Histogram
	paymentVerifications *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	ordersPlaced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders committed at checkout.",
	}, []string{"payment_method"})
	checkoutRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_rejected_total",
		Help: "Checkout attempts rejected before commit.",
	}, []string{"reason"})
	orderNumberDraws := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_number_draws",
		Help:    "Attempts needed to allocate a unique order number.",
		Buckets: []float64{1, 2, 3, 5, 10, 25, 50, 100},
	})
	paymentVerifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_total",
		Help: "Gateway payment verification outcomes.",
	}, []string{"outcome"})
	reg.MustRegister(ordersPlaced, checkoutRejected, orderNumberDraws, paymentVerifications)
	return &CheckoutMetrics{
		ordersPlaced:         ordersPlaced,
		checkoutRejected:     checkoutRejected,
		orderNumberDraws:     orderNumberDraws,
		paymentVerifications: paymentVerifications,
	}
}

// IncOrderPlaced increments the placed counter for the payment method.
func (c *CheckoutMetrics) IncOrderPlaced(method string) {
	if c == nil || c.ordersPlaced == nil {
		return
	}
	c.ordersPlaced.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncCheckoutRejected increments the rejection counter for the reason.
func (c *CheckoutMetrics) IncCheckoutRejected(reason string) {
	if c == nil || c.checkoutRejected == nil {
		return
	}
	c.checkoutRejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

// ObserveOrderNumberDraws records how many draws the allocator needed.
func (c *CheckoutMetrics) ObserveOrderNumberDraws(attempts int) {
	if c == nil || c.orderNumberDraws == nil {
		return
	}
	c.orderNumberDraws.Observe(float64(attempts))
}

// IncPaymentVerification increments the verification counter for the outcome.
func (c *CheckoutMetrics) IncPaymentVerification(outcome string) {
	if c == nil || c.paymentVerifications == nil {
		return
	}
	c.paymentVerifications.WithLabelValues(normalizeLabel(outcome)).Inc()
}
