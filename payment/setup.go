// Package payment drives the cross-wallet payment workflow: setup up to the
// consent redirect, and completion once consent was given. The state machine
// spans two requests; the only state that survives between them is the
// SessionBundle carried by the caller.
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/vitwit/openpay/client"
	"github.com/vitwit/openpay/grant"
	"github.com/vitwit/openpay/logger"
	"github.com/vitwit/openpay/metrics"
	"github.com/vitwit/openpay/types"
	"github.com/vitwit/openpay/utils"
)

// ilpMethod is the payment method quotes are created with.
const ilpMethod = "ilp"

// StartRequest is the input to payment setup.
type StartRequest struct {
	SenderWalletAddressURL   string `json:"senderWalletAddressUrl" validate:"required"`
	ReceiverWalletAddressURL string `json:"receiverWalletAddressUrl" validate:"required"`
	Amount                   string `json:"amount" validate:"required"`
}

// Validate fails fast, before any network call, on missing or malformed
// inputs.
func (r *StartRequest) Validate() error {
	if err := utils.ValidateStruct(r); err != nil {
		return err
	}

	if err := utils.ValidateWalletAddressURL(r.SenderWalletAddressURL); err != nil {
		return &types.OPError{
			Code:    types.ErrValidation,
			Message: fmt.Sprintf("sender wallet address: %v", err),
		}
	}

	if err := utils.ValidateWalletAddressURL(r.ReceiverWalletAddressURL); err != nil {
		return &types.OPError{
			Code:    types.ErrValidation,
			Message: fmt.Sprintf("receiver wallet address: %v", err),
		}
	}

	if _, err := utils.ValidateAmount(r.Amount); err != nil {
		return &types.OPError{
			Code:    types.ErrValidation,
			Message: fmt.Sprintf("amount: %v", err),
		}
	}

	return nil
}

// StartResult is everything the caller needs to finish the flow after
// consent: where to send the payer, and the bundle to replay.
type StartResult struct {
	RedirectURL string
	Bundle      types.SessionBundle
}

// SetupService orchestrates the payment setup sequence. Each step depends on
// the previous step's output; nothing here may be reordered or parallelized.
type SetupService struct {
	client  client.Client
	grants  *grant.Negotiator
	timeout time.Duration
	log     logger.Logger
	rec     metrics.Recorder
}

// NewSetupService creates the setup orchestrator.
func NewSetupService(c client.Client, grants *grant.Negotiator, timeout time.Duration, log logger.Logger, rec metrics.Recorder) *SetupService {
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &SetupService{client: c, grants: grants, timeout: timeout, log: log, rec: rec}
}

// Start runs the setup sequence: resolve both wallets, create the incoming
// payment under a non-interactive grant, quote it, then request the
// interactive outgoing-payment grant. It returns the consent redirect and
// the session bundle; no funds move during setup. Any step's failure aborts
// the whole run.
func (s *SetupService) Start(ctx context.Context, req *StartRequest) (*StartResult, error) {
	started := time.Now()
	labels := map[string]string{"operation": "start_payment"}
	defer func() {
		s.rec.ObserveLatency("start_payment", time.Since(started), labels)
	}()

	if err := req.Validate(); err != nil {
		s.rec.IncCounter("validation_failed", labels)
		return nil, err
	}

	s.log.Info("starting payment", map[string]any{
		"sender":   req.SenderWalletAddressURL,
		"receiver": req.ReceiverWalletAddressURL,
		"amount":   req.Amount,
	})

	sender, err := s.resolveWallet(ctx, req.SenderWalletAddressURL)
	if err != nil {
		return nil, s.fail(labels, err)
	}

	receiver, err := s.resolveWallet(ctx, req.ReceiverWalletAddressURL)
	if err != nil {
		return nil, s.fail(labels, err)
	}

	incomingGrant, err := s.grants.RequestFinalized(ctx, receiver.AuthServer, []types.AccessItem{{
		Type:    types.AccessTypeIncomingPayment,
		Actions: []string{types.ActionCreate},
	}})
	if err != nil {
		return nil, s.fail(labels, err)
	}

	incoming, err := s.createIncomingPayment(ctx, receiver, incomingGrant.AccessToken, req.Amount)
	if err != nil {
		return nil, s.fail(labels, err)
	}

	quoteGrant, err := s.grants.RequestFinalized(ctx, sender.AuthServer, []types.AccessItem{{
		Type:    types.AccessTypeQuote,
		Actions: []string{types.ActionCreate},
	}})
	if err != nil {
		return nil, s.fail(labels, err)
	}

	quote, err := s.createQuote(ctx, sender, quoteGrant.AccessToken, incoming.ID)
	if err != nil {
		return nil, s.fail(labels, err)
	}

	// The debit-amount limit pins the grant to this quote; the payer
	// consents to exactly what the quote costs.
	outgoingGrant, err := s.grants.RequestInteractive(ctx, sender.AuthServer, []types.AccessItem{{
		Type:       types.AccessTypeOutgoingPayment,
		Actions:    []string{types.ActionCreate},
		Identifier: sender.ID,
		Limits:     &types.AccessLimits{DebitAmount: &quote.DebitAmount},
	}})
	if err != nil {
		return nil, s.fail(labels, err)
	}

	s.log.Info("payment setup complete, awaiting consent", map[string]any{
		"quoteId":     quote.ID,
		"debitAmount": utils.FormatAmount(quote.DebitAmount),
	})
	s.rec.IncCounter("setup_completed", labels)

	return &StartResult{
		RedirectURL: outgoingGrant.Redirect,
		Bundle: types.SessionBundle{
			ContinueURI:                 outgoingGrant.Continuation.URI,
			ContinueAccessToken:         outgoingGrant.Continuation.AccessToken,
			QuoteID:                     quote.ID,
			SendingWalletAddressID:      sender.ID,
			SendingWalletResourceServer: sender.ResourceServer,
		},
	}, nil
}

func (s *SetupService) resolveWallet(ctx context.Context, walletURL string) (*types.WalletAddress, error) {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	return s.client.ResolveWallet(opCtx, walletURL)
}

func (s *SetupService) createIncomingPayment(ctx context.Context, receiver *types.WalletAddress, accessToken, amount string) (*types.IncomingPayment, error) {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	return s.client.CreateIncomingPayment(opCtx, receiver.ResourceServer, accessToken, &client.IncomingPaymentRequest{
		WalletAddress: receiver.ID,
		IncomingAmount: types.Amount{
			Value:      amount,
			AssetCode:  receiver.AssetCode,
			AssetScale: receiver.AssetScale,
		},
	})
}

func (s *SetupService) createQuote(ctx context.Context, sender *types.WalletAddress, accessToken, incomingPaymentID string) (*types.Quote, error) {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	return s.client.CreateQuote(opCtx, sender.ResourceServer, accessToken, &client.QuoteRequest{
		WalletAddress: sender.ID,
		Receiver:      incomingPaymentID,
		Method:        ilpMethod,
	})
}

func (s *SetupService) fail(labels map[string]string, err error) error {
	s.log.Error("payment setup failed", map[string]any{"error": err.Error()})
	s.rec.IncCounter("setup_failed", labels)
	return err
}

func (s *SetupService) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}
