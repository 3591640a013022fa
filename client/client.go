// Package client implements the authenticated network capability for talking
// to wallet, authorization and resource servers on the payment rail.
package client

import (
	"context"

	"github.com/vitwit/openpay/types"
)

// GrantRequest describes a grant to be negotiated against an authorization
// server. Interactive requests ask the server to start a redirect-based
// consent flow.
type GrantRequest struct {
	Access      []types.AccessItem
	Interactive bool
}

// IncomingPaymentRequest describes the receivable to create on the
// receiver's resource server.
type IncomingPaymentRequest struct {
	WalletAddress  string       `json:"walletAddress"`
	IncomingAmount types.Amount `json:"incomingAmount"`
}

// QuoteRequest describes the quote to create on the sender's resource
// server. Receiver is the incoming payment id being quoted.
type QuoteRequest struct {
	WalletAddress string `json:"walletAddress"`
	Receiver      string `json:"receiver"`
	Method        string `json:"method"`
}

// OutgoingPaymentRequest describes the payment that actually moves funds.
type OutgoingPaymentRequest struct {
	WalletAddress string `json:"walletAddress"`
	QuoteID       string `json:"quoteId"`
}

// Client is the authenticated capability to call wallet, grant, payment and
// quote operations against arbitrary authorization and resource servers.
// Implementations must be safe for concurrent use: one Client is constructed
// at process start and shared read-only by every request.
type Client interface {
	ResolveWallet(ctx context.Context, walletURL string) (*types.WalletAddress, error)
	RequestGrant(ctx context.Context, authServer string, req *GrantRequest) (*types.Grant, error)
	ContinueGrant(ctx context.Context, cont *types.Continuation) (*types.Grant, error)
	CreateIncomingPayment(ctx context.Context, resourceServer, accessToken string, req *IncomingPaymentRequest) (*types.IncomingPayment, error)
	CreateQuote(ctx context.Context, resourceServer, accessToken string, req *QuoteRequest) (*types.Quote, error)
	CreateOutgoingPayment(ctx context.Context, resourceServer, accessToken string, req *OutgoingPaymentRequest) (*types.OutgoingPayment, error)
}
