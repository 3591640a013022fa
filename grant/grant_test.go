package grant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitwit/openpay/client"
	"github.com/vitwit/openpay/types"
)

type mockClient struct {
	requestGrant  func(ctx context.Context, authServer string, req *client.GrantRequest) (*types.Grant, error)
	continueGrant func(ctx context.Context, cont *types.Continuation) (*types.Grant, error)
}

func (m *mockClient) ResolveWallet(context.Context, string) (*types.WalletAddress, error) {
	panic("unexpected ResolveWallet call")
}

func (m *mockClient) RequestGrant(ctx context.Context, authServer string, req *client.GrantRequest) (*types.Grant, error) {
	return m.requestGrant(ctx, authServer, req)
}

func (m *mockClient) ContinueGrant(ctx context.Context, cont *types.Continuation) (*types.Grant, error) {
	return m.continueGrant(ctx, cont)
}

func (m *mockClient) CreateIncomingPayment(context.Context, string, string, *client.IncomingPaymentRequest) (*types.IncomingPayment, error) {
	panic("unexpected CreateIncomingPayment call")
}

func (m *mockClient) CreateQuote(context.Context, string, string, *client.QuoteRequest) (*types.Quote, error) {
	panic("unexpected CreateQuote call")
}

func (m *mockClient) CreateOutgoingPayment(context.Context, string, string, *client.OutgoingPaymentRequest) (*types.OutgoingPayment, error) {
	panic("unexpected CreateOutgoingPayment call")
}

var incomingAccess = []types.AccessItem{{
	Type:    types.AccessTypeIncomingPayment,
	Actions: []string{types.ActionCreate},
}}

func TestRequestFinalized(t *testing.T) {
	n := NewNegotiator(&mockClient{
		requestGrant: func(_ context.Context, authServer string, req *client.GrantRequest) (*types.Grant, error) {
			assert.Equal(t, "https://auth.example", authServer)
			assert.False(t, req.Interactive)
			return &types.Grant{State: types.GrantFinalized, AccessToken: "tok"}, nil
		},
	}, time.Second, nil)

	g, err := n.RequestFinalized(context.Background(), "https://auth.example", incomingAccess)
	require.NoError(t, err)
	assert.Equal(t, "tok", g.AccessToken)
}

func TestRequestFinalizedRejectsPending(t *testing.T) {
	n := NewNegotiator(&mockClient{
		requestGrant: func(context.Context, string, *client.GrantRequest) (*types.Grant, error) {
			return &types.Grant{
				State:        types.GrantPending,
				Redirect:     "https://auth.example/interact/1",
				Continuation: &types.Continuation{URI: "https://auth.example/continue/1", AccessToken: "c"},
			}, nil
		},
	}, time.Second, nil)

	_, err := n.RequestFinalized(context.Background(), "https://auth.example", incomingAccess)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrGrantNotFinalized))
}

func TestRequestInteractive(t *testing.T) {
	n := NewNegotiator(&mockClient{
		requestGrant: func(_ context.Context, _ string, req *client.GrantRequest) (*types.Grant, error) {
			assert.True(t, req.Interactive)
			return &types.Grant{
				State:        types.GrantPending,
				Redirect:     "https://auth.example/interact/1",
				Continuation: &types.Continuation{URI: "https://auth.example/continue/1", AccessToken: "cont-tok"},
			}, nil
		},
	}, time.Second, nil)

	g, err := n.RequestInteractive(context.Background(), "https://auth.example", incomingAccess)
	require.NoError(t, err)
	assert.Equal(t, "https://auth.example/interact/1", g.Redirect)
	assert.Equal(t, "cont-tok", g.Continuation.AccessToken)
}

func TestRequestInteractiveWithoutRedirect(t *testing.T) {
	n := NewNegotiator(&mockClient{
		requestGrant: func(context.Context, string, *client.GrantRequest) (*types.Grant, error) {
			return &types.Grant{State: types.GrantPending}, nil
		},
	}, time.Second, nil)

	_, err := n.RequestInteractive(context.Background(), "https://auth.example", incomingAccess)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrGrantRequest))
}

func TestContinueFinalizes(t *testing.T) {
	n := NewNegotiator(&mockClient{
		continueGrant: func(_ context.Context, cont *types.Continuation) (*types.Grant, error) {
			assert.Equal(t, "https://auth.example/continue/1", cont.URI)
			return &types.Grant{State: types.GrantFinalized, AccessToken: "outgoing-tok"}, nil
		},
	}, time.Second, nil)

	g, err := n.Continue(context.Background(), &types.Continuation{
		URI:         "https://auth.example/continue/1",
		AccessToken: "cont-tok",
	})
	require.NoError(t, err)
	assert.Equal(t, "outgoing-tok", g.AccessToken)
}

func TestContinueStillPending(t *testing.T) {
	n := NewNegotiator(&mockClient{
		continueGrant: func(context.Context, *types.Continuation) (*types.Grant, error) {
			return &types.Grant{State: types.GrantPending}, nil
		},
	}, time.Second, nil)

	_, err := n.Continue(context.Background(), &types.Continuation{
		URI:         "https://auth.example/continue/1",
		AccessToken: "cont-tok",
	})
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrGrantNotFinalized))
}

func TestOperationDeadlineApplied(t *testing.T) {
	n := NewNegotiator(&mockClient{
		requestGrant: func(ctx context.Context, _ string, _ *client.GrantRequest) (*types.Grant, error) {
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			return &types.Grant{State: types.GrantFinalized, AccessToken: "tok"}, nil
		},
	}, time.Second, nil)

	_, err := n.RequestFinalized(context.Background(), "https://auth.example", incomingAccess)
	require.NoError(t, err)
}
