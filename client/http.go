package client

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vitwit/openpay/logger"
	"github.com/vitwit/openpay/types"
)

const defaultTimeout = 30 * time.Second

// maxResponseBody caps how much of an upstream response is read.
const maxResponseBody = 1 << 20

// Config configures the authenticated HTTP client. WalletAddressURL and
// KeyID identify the orchestrating party with the payment network; the
// private key must match the key published under that wallet address.
type Config struct {
	WalletAddressURL string
	KeyID            string
	PrivateKey       ed25519.PrivateKey
	Timeout          time.Duration
	Logger           logger.Logger
	HTTPClient       *http.Client
}

// HTTPClient is the Client implementation that talks to real authorization
// and resource servers. It is immutable after construction and safe for
// concurrent use.
type HTTPClient struct {
	httpClient       *http.Client
	walletAddressURL string
	log              logger.Logger
}

// NewAuthenticated builds the signing client and proves the credentials work
// by resolving the orchestrator's own wallet address. Construction fails,
// rather than returning a half-usable client, when the probe fails.
func NewAuthenticated(ctx context.Context, cfg Config) (*HTTPClient, error) {
	if cfg.WalletAddressURL == "" || cfg.KeyID == "" {
		return nil, &types.OPError{
			Code:    types.ErrConfigError,
			Message: "wallet address URL and key id are required",
		}
	}
	if len(cfg.PrivateKey) != ed25519.PrivateKeySize {
		return nil, &types.OPError{
			Code:    types.ErrConfigError,
			Message: "private key must be a valid Ed25519 key",
		}
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NoopLogger{}
	}

	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{}
	}

	c := &HTTPClient{
		httpClient: &http.Client{
			Transport: newSigningTransport(base.Transport, cfg.KeyID, cfg.PrivateKey),
			Timeout:   timeout,
		},
		walletAddressURL: cfg.WalletAddressURL,
		log:              log,
	}

	if _, err := c.ResolveWallet(ctx, cfg.WalletAddressURL); err != nil {
		return nil, &types.OPError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("client authentication failed: %v", err),
		}
	}

	log.Info("payment network client authenticated", map[string]any{
		"walletAddress": cfg.WalletAddressURL,
		"keyId":         cfg.KeyID,
	})

	return c, nil
}

// WalletAddressURL returns the wallet address identifying this client on the
// rail. Grant requests present it as the GNAP client field.
func (c *HTTPClient) WalletAddressURL() string {
	return c.walletAddressURL
}

// ResolveWallet turns a wallet address URL into its authorization and
// resource server endpoints plus asset metadata.
func (c *HTTPClient) ResolveWallet(ctx context.Context, walletURL string) (*types.WalletAddress, error) {
	if !strings.HasPrefix(walletURL, "https://") && !strings.HasPrefix(walletURL, "http://") {
		return nil, &types.OPError{
			Code:    types.ErrWalletResolution,
			Message: fmt.Sprintf("malformed wallet address URL %q", walletURL),
		}
	}

	var wallet types.WalletAddress
	if err := c.doJSON(ctx, http.MethodGet, walletURL, "", nil, &wallet); err != nil {
		return nil, &types.OPError{
			Code:    types.ErrWalletResolution,
			Message: fmt.Sprintf("%s %s: %v", OpResolveWallet, walletURL, err),
		}
	}

	if err := wallet.Validate(); err != nil {
		return nil, &types.OPError{
			Code:    types.ErrWalletResolution,
			Message: fmt.Sprintf("%s %s: incomplete wallet address: %v", OpResolveWallet, walletURL, err),
		}
	}

	return &wallet, nil
}

// GNAP wire shapes. Only the fields this orchestrator consumes are mapped.

type grantRequestBody struct {
	AccessToken grantAccessRequest `json:"access_token"`
	Client      string             `json:"client"`
	Interact    *interactRequest   `json:"interact,omitempty"`
}

type grantAccessRequest struct {
	Access []types.AccessItem `json:"access"`
}

type interactRequest struct {
	Start []string `json:"start"`
}

type grantResponseBody struct {
	AccessToken *struct {
		Value  string `json:"value"`
		Manage string `json:"manage"`
	} `json:"access_token"`
	Interact *struct {
		Redirect string `json:"redirect"`
		Finish   string `json:"finish"`
	} `json:"interact"`
	Continue *struct {
		AccessToken struct {
			Value string `json:"value"`
		} `json:"access_token"`
		URI  string `json:"uri"`
		Wait int    `json:"wait"`
	} `json:"continue"`
}

// RequestGrant negotiates a grant against an authorization server. The
// result is a variant: finalized with a usable token, or pending with a
// consent redirect and a continuation capability.
func (c *HTTPClient) RequestGrant(ctx context.Context, authServer string, req *GrantRequest) (*types.Grant, error) {
	body := grantRequestBody{
		AccessToken: grantAccessRequest{Access: req.Access},
		Client:      c.walletAddressURL,
	}
	if req.Interactive {
		body.Interact = &interactRequest{Start: []string{"redirect"}}
	}

	var resp grantResponseBody
	if err := c.doJSON(ctx, http.MethodPost, authServer, "", body, &resp); err != nil {
		return nil, &types.OPError{
			Code:    types.ErrGrantRequest,
			Message: fmt.Sprintf("%s %s: %v", OpRequestGrant, authServer, err),
		}
	}

	grant := classifyGrant(&resp)
	c.log.Debug("grant negotiated", map[string]any{
		"authServer": authServer,
		"state":      grant.State,
	})

	return grant, nil
}

// ContinueGrant exchanges a continuation capability for the grant's current
// state. A grant still awaiting consent comes back pending; deciding whether
// that is an error belongs to the caller.
func (c *HTTPClient) ContinueGrant(ctx context.Context, cont *types.Continuation) (*types.Grant, error) {
	if err := cont.Validate(); err != nil {
		return nil, &types.OPError{
			Code:    types.ErrGrantRequest,
			Message: fmt.Sprintf("%s: %v", OpContinueGrant, err),
		}
	}

	var resp grantResponseBody
	if err := c.doJSON(ctx, http.MethodPost, cont.URI, cont.AccessToken, struct{}{}, &resp); err != nil {
		return nil, &types.OPError{
			Code:    types.ErrGrantRequest,
			Message: fmt.Sprintf("%s %s: %v", OpContinueGrant, cont.URI, err),
		}
	}

	return classifyGrant(&resp), nil
}

// classifyGrant maps a GNAP response onto the Grant variant.
func classifyGrant(resp *grantResponseBody) *types.Grant {
	grant := &types.Grant{State: types.GrantPending}

	if resp.AccessToken != nil && resp.AccessToken.Value != "" {
		grant.State = types.GrantFinalized
		grant.AccessToken = resp.AccessToken.Value
		grant.Manage = resp.AccessToken.Manage
	}

	if resp.Interact != nil {
		grant.Redirect = resp.Interact.Redirect
	}

	if resp.Continue != nil && resp.Continue.URI != "" {
		grant.Continuation = &types.Continuation{
			URI:         resp.Continue.URI,
			AccessToken: resp.Continue.AccessToken.Value,
			Wait:        resp.Continue.Wait,
		}
	}

	return grant
}

// CreateIncomingPayment creates the receivable on the receiver's resource
// server using a finalized incoming-payment grant token.
func (c *HTTPClient) CreateIncomingPayment(ctx context.Context, resourceServer, accessToken string, req *IncomingPaymentRequest) (*types.IncomingPayment, error) {
	var payment types.IncomingPayment
	url := joinURL(resourceServer, pathIncomingPayments)
	if err := c.doJSON(ctx, http.MethodPost, url, accessToken, req, &payment); err != nil {
		return nil, &types.OPError{
			Code:    types.ErrIncomingPayment,
			Message: fmt.Sprintf("%s %s: %v", OpCreateIncomingPayment, url, err),
		}
	}
	return &payment, nil
}

// CreateQuote creates a quote on the sender's resource server, referencing
// the incoming payment as receiver.
func (c *HTTPClient) CreateQuote(ctx context.Context, resourceServer, accessToken string, req *QuoteRequest) (*types.Quote, error) {
	var quote types.Quote
	url := joinURL(resourceServer, pathQuotes)
	if err := c.doJSON(ctx, http.MethodPost, url, accessToken, req, &quote); err != nil {
		return nil, &types.OPError{
			Code:    types.ErrQuote,
			Message: fmt.Sprintf("%s %s: %v", OpCreateQuote, url, err),
		}
	}
	return &quote, nil
}

// CreateOutgoingPayment submits the payment that moves funds. The access
// token must come from a grant observed finalized after consent.
func (c *HTTPClient) CreateOutgoingPayment(ctx context.Context, resourceServer, accessToken string, req *OutgoingPaymentRequest) (*types.OutgoingPayment, error) {
	var payment types.OutgoingPayment
	url := joinURL(resourceServer, pathOutgoingPayments)
	if err := c.doJSON(ctx, http.MethodPost, url, accessToken, req, &payment); err != nil {
		return nil, &types.OPError{
			Code:    types.ErrOutgoingPayment,
			Message: fmt.Sprintf("%s %s: %v", OpCreateOutgoingPayment, url, err),
		}
	}
	return &payment, nil
}

// doJSON executes one signed JSON round trip. A non-empty accessToken is
// presented as a GNAP authorization header.
func (c *HTTPClient) doJSON(ctx context.Context, method, url, accessToken string, body, target interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "GNAP "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
