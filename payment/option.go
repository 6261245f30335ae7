package payment

import (
	"time"

	"github.com/oipwg/oip-account/logger"
	"github.com/oipwg/oip-account/metrics"
)

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger the builder reports progress through.
func WithLogger(l logger.Logger) Option {
	return func(b *Builder) {
		b.log = logger.OrNoop(l)
	}
}

// WithMetrics sets the recorder payment events are counted on.
func WithMetrics(r metrics.Recorder) Option {
	return func(b *Builder) {
		b.metrics = metrics.OrNoop(r)
	}
}

// WithTimeout bounds the whole payment pipeline, fetches and send included.
func WithTimeout(d time.Duration) Option {
	return func(b *Builder) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithFiat sets the fiat currency used for quotes when neither the request
// nor the artifact names one.
func WithFiat(fiat string) Option {
	return func(b *Builder) {
		if fiat != "" {
			b.fiat = fiat
		}
	}
}
