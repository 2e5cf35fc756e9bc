package payments

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"storefront-service/internal/apperr"
)

var ErrSignatureMismatch = fmt.Errorf("%w: payment signature verification failed", apperr.ErrValidation)

// Intent describes a remote payment to be created.
type Intent struct {
	OrderID     int64
	UserID      int64
	AmountMinor int64
	Currency    string
	Receipt     string
}

type GatewayOrder struct {
	ID           string
	ClientSecret string
}

// Gateway is a remote payment provider. Verify returns ErrSignatureMismatch when the
// provider rejects the payment; other errors mean the provider could not be asked.
type Gateway interface {
	CreateOrder(ctx context.Context, in Intent) (GatewayOrder, error)
	Verify(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) error
}

// MinorUnits converts an amount to the smallest currency unit.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
