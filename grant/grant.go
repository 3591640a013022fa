// Package grant negotiates authorization grants. Acquisition is split into
// request and continue because the party giving consent (the payer, via
// browser redirect) is not this server: the workflow suspends exactly where
// a human decision is required and resumes only when told to.
package grant

import (
	"context"
	"fmt"
	"time"

	"github.com/vitwit/openpay/client"
	"github.com/vitwit/openpay/logger"
	"github.com/vitwit/openpay/types"
)

// Negotiator requests and continues grants against authorization servers.
type Negotiator struct {
	client  client.Client
	timeout time.Duration
	log     logger.Logger
}

// NewNegotiator creates a grant negotiator. A zero timeout disables the
// per-operation deadline.
func NewNegotiator(c client.Client, timeout time.Duration, log logger.Logger) *Negotiator {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Negotiator{client: c, timeout: timeout, log: log}
}

// Request negotiates a grant for the given access scopes. The returned Grant
// is a variant the caller branches on: finalized, or pending interaction.
func (n *Negotiator) Request(ctx context.Context, authServer string, access []types.AccessItem, interactive bool) (*types.Grant, error) {
	opCtx, cancel := n.opContext(ctx)
	defer cancel()

	g, err := n.client.RequestGrant(opCtx, authServer, &client.GrantRequest{
		Access:      access,
		Interactive: interactive,
	})
	if err != nil {
		return nil, err
	}

	return g, nil
}

// RequestFinalized negotiates a grant that must finalize without human
// interaction, as incoming-payment and quote grants are expected to. A
// pending result is an error here, not a state to wait on.
func (n *Negotiator) RequestFinalized(ctx context.Context, authServer string, access []types.AccessItem) (*types.Grant, error) {
	g, err := n.Request(ctx, authServer, access, false)
	if err != nil {
		return nil, err
	}

	if !g.IsFinalized() {
		return nil, &types.OPError{
			Code:    types.ErrGrantNotFinalized,
			Message: fmt.Sprintf("grant for %s did not finalize without interaction", accessSummary(access)),
		}
	}

	return g, nil
}

// RequestInteractive negotiates a grant with redirect interaction requested.
// The result must be pending with both a consent redirect and a continuation
// capability; anything else means the authorization server cannot run the
// consent flow this orchestration depends on.
func (n *Negotiator) RequestInteractive(ctx context.Context, authServer string, access []types.AccessItem) (*types.Grant, error) {
	g, err := n.Request(ctx, authServer, access, true)
	if err != nil {
		return nil, err
	}

	if g.Redirect == "" || g.Continuation == nil || g.Continuation.AccessToken == "" {
		return nil, &types.OPError{
			Code:    types.ErrGrantRequest,
			Message: fmt.Sprintf("interactive grant for %s returned no consent redirect or continuation", accessSummary(access)),
		}
	}

	return g, nil
}

// Continue exchanges a continuation capability for a finalized grant, called
// only after the caller reports that out-of-band consent completed. A grant
// the authorization server still reports pending is an error: the caller
// must retry after consent truly completes, never spin here.
func (n *Negotiator) Continue(ctx context.Context, cont *types.Continuation) (*types.Grant, error) {
	opCtx, cancel := n.opContext(ctx)
	defer cancel()

	g, err := n.client.ContinueGrant(opCtx, cont)
	if err != nil {
		return nil, err
	}

	if !g.IsFinalized() {
		n.log.Warn("grant continuation still pending", map[string]any{
			"continueUri": cont.URI,
		})
		return nil, &types.OPError{
			Code:    types.ErrGrantNotFinalized,
			Message: "grant continuation did not produce a finalized grant",
		}
	}

	return g, nil
}

func (n *Negotiator) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if n.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, n.timeout)
}

func accessSummary(access []types.AccessItem) string {
	if len(access) == 0 {
		return "empty access"
	}
	return access[0].Type
}
