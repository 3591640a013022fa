// Package openpay orchestrates cross-wallet payments over an
// interledger-style rail that requires multi-party authorization before
// funds move: resolve wallets, negotiate grants (one interactive), create an
// incoming payment and quote, and — after out-of-band consent — the outgoing
// payment.
package openpay

import (
	"context"
	"time"

	"github.com/vitwit/openpay/client"
	"github.com/vitwit/openpay/grant"
	"github.com/vitwit/openpay/logger"
	"github.com/vitwit/openpay/metrics"
	"github.com/vitwit/openpay/payment"
	"github.com/vitwit/openpay/types"
)

// OpenPay is the main struct that wires the orchestration services around
// one shared, authenticated network client.
type OpenPay struct {
	client     client.Client
	setup      *payment.SetupService
	completion *payment.CompletionService
	logger     logger.Logger
	metrics    metrics.Recorder
	timeout    time.Duration
}

// New creates an OpenPay instance around an authenticated client. The client
// is constructed once at bootstrap and shared read-only by every request.
func New(c client.Client, opts ...Option) *OpenPay {
	o := &OpenPay{
		client:  c,
		logger:  logger.NoopLogger{},
		metrics: metrics.NoopRecorder{},
		timeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(o)
	}

	grants := grant.NewNegotiator(c, o.timeout, o.logger)
	o.setup = payment.NewSetupService(c, grants, o.timeout, o.logger, o.metrics)
	o.completion = payment.NewCompletionService(c, grants, o.timeout, o.logger, o.metrics)

	return o
}

// StartPayment runs payment setup up to the consent redirect. It returns the
// redirect URL and the session bundle the caller must replay to complete the
// payment; the server keeps no state between the two calls.
func (o *OpenPay) StartPayment(ctx context.Context, req *payment.StartRequest) (*payment.StartResult, error) {
	return o.setup.Start(ctx, req)
}

// CompletePayment finishes a payment from a session bundle after consent.
func (o *OpenPay) CompletePayment(ctx context.Context, bundle *types.SessionBundle) (*types.OutgoingPayment, error) {
	return o.completion.Complete(ctx, bundle)
}

// Version information
const Version = "1.0.0"
