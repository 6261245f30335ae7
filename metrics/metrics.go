// Package metrics defines the instrumentation hooks the library emits
// through. The default recorder drops everything; NewPrometheusRecorder
// exposes the same events as Prometheus series.
package metrics

import "time"

// Recorder counts events and observes operation latency.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}

// Event names passed to IncCounter.
const (
	EventPaymentSent    = "payment_sent"
	EventPaymentFailed  = "payment_failed"
	EventAccountCreated = "account_created"
	EventAccountLogin   = "account_login"
)

// Operation names passed to ObserveLatency.
const (
	OpPay           = "pay"
	OpFetchRates    = "fetch_rates"
	OpFetchBalances = "fetch_balances"
	OpSendPayment   = "send_payment"
)
