package utils

import (
	"fmt"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/vitwit/openpay/types"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateStruct validates struct tags on request types.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return &types.OPError{
			Code:    types.ErrValidation,
			Message: fmt.Sprintf("validation failed: %v", err),
		}
	}
	return nil
}

// ValidateAmount checks that an amount string is a non-negative integer
// count of minor units. Amounts never pass through floats.
func ValidateAmount(amount string) (*decimal.Decimal, error) {
	if amount == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}

	if dec.IsNegative() {
		return nil, fmt.Errorf("amount cannot be negative")
	}

	if !dec.IsInteger() {
		return nil, fmt.Errorf("amount must be an integer count of minor units")
	}

	return &dec, nil
}

// ValidateWalletAddressURL checks that a wallet address is an absolute
// http(s) URL with a host.
func ValidateWalletAddressURL(walletURL string) error {
	if walletURL == "" {
		return fmt.Errorf("wallet address URL cannot be empty")
	}

	u, err := url.Parse(walletURL)
	if err != nil {
		return fmt.Errorf("invalid wallet address URL: %w", err)
	}

	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("wallet address URL must use http or https")
	}

	if u.Host == "" {
		return fmt.Errorf("wallet address URL must include a host")
	}

	return nil
}

// FormatAmount renders a minor-unit amount as a major-unit decimal string,
// for logs only; wire values stay in minor units.
func FormatAmount(a types.Amount) string {
	dec, err := decimal.NewFromString(a.Value)
	if err != nil {
		return a.Value
	}
	return dec.Shift(-int32(a.AssetScale)).String() + " " + a.AssetCode
}
