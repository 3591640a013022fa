package payment

import (
	"context"
	"time"

	"github.com/vitwit/openpay/client"
	"github.com/vitwit/openpay/grant"
	"github.com/vitwit/openpay/logger"
	"github.com/vitwit/openpay/metrics"
	"github.com/vitwit/openpay/types"
)

// CompletionService finishes a payment after out-of-band consent: it
// finalizes the outgoing-payment grant from the caller's session bundle and
// creates the outgoing payment that moves funds.
type CompletionService struct {
	client  client.Client
	grants  *grant.Negotiator
	timeout time.Duration
	log     logger.Logger
	rec     metrics.Recorder
}

// NewCompletionService creates the completion handler.
func NewCompletionService(c client.Client, grants *grant.Negotiator, timeout time.Duration, log logger.Logger, rec metrics.Recorder) *CompletionService {
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &CompletionService{client: c, grants: grants, timeout: timeout, log: log, rec: rec}
}

// Complete consumes a session bundle: continue the grant, require it
// finalized, create the outgoing payment. A grant the authorization server
// still reports pending aborts the run before any payment is attempted; the
// caller retries only after consent truly completes.
func (s *CompletionService) Complete(ctx context.Context, bundle *types.SessionBundle) (*types.OutgoingPayment, error) {
	started := time.Now()
	labels := map[string]string{"operation": "complete_payment"}
	defer func() {
		s.rec.ObserveLatency("complete_payment", time.Since(started), labels)
	}()

	if err := bundle.Validate(); err != nil {
		s.rec.IncCounter("validation_failed", labels)
		return nil, &types.OPError{
			Code:    types.ErrValidation,
			Message: err.Error(),
		}
	}

	finalized, err := s.grants.Continue(ctx, &types.Continuation{
		URI:         bundle.ContinueURI,
		AccessToken: bundle.ContinueAccessToken,
	})
	if err != nil {
		s.log.Error("outgoing payment grant not finalized", map[string]any{
			"quoteId": bundle.QuoteID,
			"error":   err.Error(),
		})
		s.rec.IncCounter("completion_failed", labels)
		return nil, err
	}

	s.log.Info("outgoing payment grant finalized", map[string]any{
		"quoteId": bundle.QuoteID,
	})

	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	payment, err := s.client.CreateOutgoingPayment(opCtx, bundle.SendingWalletResourceServer, finalized.AccessToken, &client.OutgoingPaymentRequest{
		WalletAddress: bundle.SendingWalletAddressID,
		QuoteID:       bundle.QuoteID,
	})
	if err != nil {
		s.rec.IncCounter("completion_failed", labels)
		return nil, err
	}

	s.log.Info("outgoing payment created", map[string]any{
		"paymentId": payment.ID,
		"quoteId":   payment.QuoteID,
	})
	s.rec.IncCounter("payment_completed", labels)

	return payment, nil
}

func (s *CompletionService) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}
