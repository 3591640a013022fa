package types

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// GrantState represents the lifecycle state of an authorization grant
type GrantState string

const (
	// GrantPending means the grant requires out-of-band consent before it
	// carries a usable access token
	GrantPending GrantState = "pending"

	// GrantFinalized means the grant's access token is immediately usable
	GrantFinalized GrantState = "finalized"
)

// Access types understood by the payment rail
const (
	AccessTypeIncomingPayment = "incoming-payment"
	AccessTypeQuote           = "quote"
	AccessTypeOutgoingPayment = "outgoing-payment"
)

// ActionCreate is the only action this orchestrator ever requests
const ActionCreate = "create"

// Amount is a monetary value carried as a decimal string scaled by AssetScale.
// Amounts are never floats; arithmetic happens on the rail, not here.
type Amount struct {
	Value      string `json:"value"`
	AssetCode  string `json:"assetCode"`
	AssetScale int    `json:"assetScale"`
}

// Validate checks that the amount is a non-negative integer number of
// minor units.
func (a *Amount) Validate() error {
	if a.Value == "" {
		return fmt.Errorf("amount value is required")
	}

	dec, err := decimal.NewFromString(a.Value)
	if err != nil {
		return fmt.Errorf("invalid amount value %q: %w", a.Value, err)
	}

	if dec.IsNegative() {
		return fmt.Errorf("amount value cannot be negative")
	}

	if !dec.IsInteger() {
		return fmt.Errorf("amount value must be an integer count of minor units")
	}

	if a.AssetCode == "" {
		return fmt.Errorf("amount assetCode is required")
	}

	return nil
}

// WalletAddress is a resolved wallet endpoint: the published identifier plus
// the authorization and resource servers that govern it. Immutable once
// resolved; scoped to one orchestration run.
type WalletAddress struct {
	ID             string `json:"id"`
	PublicName     string `json:"publicName,omitempty"`
	AssetCode      string `json:"assetCode"`
	AssetScale     int    `json:"assetScale"`
	AuthServer     string `json:"authServer"`
	ResourceServer string `json:"resourceServer"`
}

// Validate checks that resolution produced every endpoint a payment needs.
func (w *WalletAddress) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("wallet address id is required")
	}
	if w.AuthServer == "" {
		return fmt.Errorf("wallet address authServer is required")
	}
	if w.ResourceServer == "" {
		return fmt.Errorf("wallet address resourceServer is required")
	}
	if w.AssetCode == "" {
		return fmt.Errorf("wallet address assetCode is required")
	}
	return nil
}

// AccessLimits constrains what a granted access token may spend.
type AccessLimits struct {
	DebitAmount   *Amount `json:"debitAmount,omitempty"`
	ReceiveAmount *Amount `json:"receiveAmount,omitempty"`
}

// AccessItem is one scoped permission inside a grant request.
type AccessItem struct {
	Type       string        `json:"type"`
	Actions    []string      `json:"actions"`
	Identifier string        `json:"identifier,omitempty"`
	Limits     *AccessLimits `json:"limits,omitempty"`
}

// Continuation is the capability handed back with a pending grant: replaying
// it against the authorization server exchanges the pending grant for a
// finalized one once consent completed.
type Continuation struct {
	URI         string `json:"uri"`
	AccessToken string `json:"accessToken"`
	Wait        int    `json:"wait,omitempty"`
}

// Validate checks the continuation carries both halves of the capability.
func (c *Continuation) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("continuation uri is required")
	}
	if c.AccessToken == "" {
		return fmt.Errorf("continuation access token is required")
	}
	return nil
}

// Grant is the variant result of grant negotiation. A finalized grant carries
// an access token; a pending grant carries a redirect URL for consent and a
// continuation capability, and no payment-capable token.
type Grant struct {
	State        GrantState    `json:"state"`
	AccessToken  string        `json:"accessToken,omitempty"`
	Manage       string        `json:"manage,omitempty"`
	Redirect     string        `json:"redirect,omitempty"`
	Continuation *Continuation `json:"continuation,omitempty"`
}

// IsFinalized reports whether the grant's access token is usable now.
func (g *Grant) IsFinalized() bool {
	return g != nil && g.State == GrantFinalized && g.AccessToken != ""
}

// IsPending reports whether the grant still needs out-of-band consent.
func (g *Grant) IsPending() bool {
	return g != nil && g.State == GrantPending
}

// IncomingPayment is the receivable created on the receiver's resource server.
type IncomingPayment struct {
	ID             string  `json:"id"`
	WalletAddress  string  `json:"walletAddress"`
	IncomingAmount *Amount `json:"incomingAmount,omitempty"`
	ReceivedAmount *Amount `json:"receivedAmount,omitempty"`
	Completed      bool    `json:"completed,omitempty"`
}

// Quote is the rail's commitment to convert a debit amount on the sender side
// into a receive amount for a given incoming payment.
type Quote struct {
	ID            string `json:"id"`
	WalletAddress string `json:"walletAddress"`
	Receiver      string `json:"receiver"`
	DebitAmount   Amount `json:"debitAmount"`
	ReceiveAmount Amount `json:"receiveAmount"`
	Method        string `json:"method,omitempty"`
}

// OutgoingPayment is the terminal entity; creating it is what moves funds.
type OutgoingPayment struct {
	ID            string  `json:"id"`
	WalletAddress string  `json:"walletAddress"`
	QuoteID       string  `json:"quoteId"`
	DebitAmount   *Amount `json:"debitAmount,omitempty"`
	SentAmount    *Amount `json:"sentAmount,omitempty"`
	Failed        bool    `json:"failed,omitempty"`
}

// SessionBundle is the externalized continuation state handed to the caller
// after payment setup. The server keeps nothing: the caller must round-trip
// the bundle unmodified to complete the payment.
type SessionBundle struct {
	ContinueURI                 string `json:"continueUri"`
	ContinueAccessToken         string `json:"continueAccessToken"`
	QuoteID                     string `json:"quoteId"`
	SendingWalletAddressID      string `json:"sendingWalletAddressId"`
	SendingWalletResourceServer string `json:"sendingWalletResourceServer"`
}

// Validate checks that all five bundle fields survived the round trip.
func (b *SessionBundle) Validate() error {
	if b == nil {
		return fmt.Errorf("session bundle is required")
	}
	if b.ContinueURI == "" {
		return fmt.Errorf("session bundle continueUri is required")
	}
	if b.ContinueAccessToken == "" {
		return fmt.Errorf("session bundle continueAccessToken is required")
	}
	if b.QuoteID == "" {
		return fmt.Errorf("session bundle quoteId is required")
	}
	if b.SendingWalletAddressID == "" {
		return fmt.Errorf("session bundle sendingWalletAddressId is required")
	}
	if b.SendingWalletResourceServer == "" {
		return fmt.Errorf("session bundle sendingWalletResourceServer is required")
	}
	return nil
}

// OPError is the typed error for every orchestration failure.
type OPError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *OPError) Error() string {
	return e.Message
}

// Common error codes
const (
	ErrValidation        = "VALIDATION_ERROR"
	ErrWalletResolution  = "WALLET_RESOLUTION_ERROR"
	ErrGrantRequest      = "GRANT_REQUEST_ERROR"
	ErrGrantNotFinalized = "GRANT_NOT_FINALIZED"
	ErrIncomingPayment   = "INCOMING_PAYMENT_ERROR"
	ErrQuote             = "QUOTE_ERROR"
	ErrOutgoingPayment   = "OUTGOING_PAYMENT_ERROR"
	ErrNetworkError      = "NETWORK_ERROR"
	ErrConfigError       = "CONFIG_ERROR"
)

// IsCode reports whether err is (or wraps) an OPError with the given code.
func IsCode(err error, code string) bool {
	var opErr *OPError
	if errors.As(err, &opErr) {
		return opErr.Code == code
	}
	return false
}
