// Package metrics defines and registers the custom Prometheus metrics of the
// checkout service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on import and
// exposed on GET /metrics next to the echo request metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "checkout"

// ── Device & session metrics ─────────────────────────────────────────────────

// DevicesIssuedTotal counts device tokens handed out by POST /v1/devices.
var DevicesIssuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "devices_issued_total",
		Help:      "Total number of device tokens issued.",
	},
)

// SessionLoginsTotal counts sign-in attempts.
// Labels:
//   - method: "login" or "register"
//   - result: "success", "second_factor", or the error kind ("validation", "auth", "network", "server")
var SessionLoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_logins_total",
		Help:      "Total number of sign-in attempts, by method and result.",
	},
	[]string{"method", "result"},
)

// ── Checkout metrics ─────────────────────────────────────────────────────────

// CheckoutsStartedTotal counts new checkout flows.
// Label:
//   - initial_step: "auth" when the device was signed out, "payment" otherwise
var CheckoutsStartedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkouts_started_total",
		Help:      "Total number of checkout flows started, by initial step.",
	},
	[]string{"initial_step"},
)

// CheckoutStepsTotal counts flows reaching a step.
// Label:
//   - step: "payment", "redirected", "bank_transfer", "confirmed", or "auth" after an expired token
var CheckoutStepsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_steps_total",
		Help:      "Total number of checkout transitions, by step reached.",
	},
	[]string{"step"},
)

// OrdersSubmittedTotal counts order submissions.
// Labels:
//   - payment_method: "hosted_card", "bank_transfer", or "" when missing
//   - result: "success", "busy", or the error kind
var OrdersSubmittedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_submitted_total",
		Help:      "Total number of order submissions, by payment method and result.",
	},
	[]string{"payment_method", "result"},
)

// OrderSubmitDuration measures an order submission end-to-end, Evanio API calls included.
// Label:
//   - payment_method: "hosted_card" or "bank_transfer"
var OrderSubmitDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "order_submit_duration_seconds",
		Help:      "Duration of order submissions including Evanio API calls.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"payment_method"},
)

// BankTransfersSubmittedTotal counts bank transfer proof submissions.
// Label:
//   - result: "success", "busy", or the error kind
var BankTransfersSubmittedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bank_transfers_submitted_total",
		Help:      "Total number of bank transfer proof submissions, by result.",
	},
	[]string{"result"},
)
