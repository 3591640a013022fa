package types

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountValidate(t *testing.T) {
	tests := []struct {
		name    string
		amount  Amount
		wantErr bool
	}{
		{"valid minor units", Amount{Value: "1000", AssetCode: "USD", AssetScale: 2}, false},
		{"zero", Amount{Value: "0", AssetCode: "USD", AssetScale: 2}, false},
		{"empty value", Amount{AssetCode: "USD"}, true},
		{"negative", Amount{Value: "-5", AssetCode: "USD"}, true},
		{"fractional", Amount{Value: "10.5", AssetCode: "USD"}, true},
		{"not a number", Amount{Value: "ten", AssetCode: "USD"}, true},
		{"missing asset code", Amount{Value: "1000"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.amount.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGrantState(t *testing.T) {
	finalized := &Grant{State: GrantFinalized, AccessToken: "tok"}
	assert.True(t, finalized.IsFinalized())
	assert.False(t, finalized.IsPending())

	// finalized state without a token is not usable
	assert.False(t, (&Grant{State: GrantFinalized}).IsFinalized())

	pending := &Grant{
		State:        GrantPending,
		Redirect:     "https://auth.example/interact/123",
		Continuation: &Continuation{URI: "https://auth.example/continue/123", AccessToken: "cont-tok"},
	}
	assert.True(t, pending.IsPending())
	assert.False(t, pending.IsFinalized())

	var nilGrant *Grant
	assert.False(t, nilGrant.IsFinalized())
	assert.False(t, nilGrant.IsPending())
}

func TestSessionBundleValidate(t *testing.T) {
	valid := SessionBundle{
		ContinueURI:                 "https://auth.example/continue/1",
		ContinueAccessToken:         "cont-tok",
		QuoteID:                     "https://rs.example/quotes/1",
		SendingWalletAddressID:      "https://wallet.example/alice",
		SendingWalletResourceServer: "https://rs.example",
	}
	require.NoError(t, valid.Validate())

	clear := []func(*SessionBundle){
		func(b *SessionBundle) { b.ContinueURI = "" },
		func(b *SessionBundle) { b.ContinueAccessToken = "" },
		func(b *SessionBundle) { b.QuoteID = "" },
		func(b *SessionBundle) { b.SendingWalletAddressID = "" },
		func(b *SessionBundle) { b.SendingWalletResourceServer = "" },
	}
	for i, mutate := range clear {
		bundle := valid
		mutate(&bundle)
		assert.Error(t, bundle.Validate(), "field %d", i)
	}

	var nilBundle *SessionBundle
	assert.Error(t, nilBundle.Validate())
}

func TestContinuationValidate(t *testing.T) {
	assert.NoError(t, (&Continuation{URI: "https://a", AccessToken: "t"}).Validate())
	assert.Error(t, (&Continuation{AccessToken: "t"}).Validate())
	assert.Error(t, (&Continuation{URI: "https://a"}).Validate())
}

func TestIsCode(t *testing.T) {
	err := &OPError{Code: ErrGrantNotFinalized, Message: "still pending"}
	assert.True(t, IsCode(err, ErrGrantNotFinalized))
	assert.False(t, IsCode(err, ErrValidation))

	wrapped := fmt.Errorf("complete payment: %w", err)
	assert.True(t, IsCode(wrapped, ErrGrantNotFinalized))

	assert.False(t, IsCode(fmt.Errorf("plain"), ErrGrantNotFinalized))
	assert.Equal(t, "still pending", err.Error())
}
