package openpay

import (
	"time"

	"github.com/vitwit/openpay/logger"
	"github.com/vitwit/openpay/metrics"
)

type Option func(*OpenPay)

func WithLogger(l logger.Logger) Option {
	return func(o *OpenPay) {
		o.logger = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(o *OpenPay) {
		o.metrics = r
	}
}

// WithTimeout sets the per-network-call deadline applied to every operation
// in an orchestration run.
func WithTimeout(t time.Duration) Option {
	return func(o *OpenPay) {
		o.timeout = t
	}
}
