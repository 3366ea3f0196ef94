package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
		refundsTotal,
		invoiceNumbersTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments by status (pending/success/failed/refunded/refund_unknown).",
		},
		[]string{"status"},
	)

	paymentsRevenueTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "Total monetary value of successful payments, in rupees.",
		},
	)

	refundsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refunds_total",
			Help: "Refund attempts by outcome (success/gateway_error/unknown).",
		},
		[]string{"outcome"},
	)

	invoiceNumbersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoice_numbers_total",
			Help: "Invoice numbers allocated, by path (counter/fallback).",
		},
		[]string{"path"},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func AddPaymentRevenue(amount int64) {
	paymentsRevenueTotal.Add(float64(amount))
}

func IncRefund(outcome string) {
	refundsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncInvoiceNumber(path string) {
	invoiceNumbersTotal.WithLabelValues(norm(path)).Inc()
}
