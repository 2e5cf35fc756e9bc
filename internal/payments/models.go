package payments

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"storefront-service/internal/apperr"
	"storefront-service/internal/orders"
)

type Method string

const (
	MethodCOD      Method = "cod"
	MethodRazorpay Method = "razorpay"
	MethodStripe   Method = "stripe"
)

func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodCOD, MethodRazorpay, MethodStripe:
		return m, nil
	}
	return "", fmt.Errorf("%w: invalid payment method %q", apperr.ErrValidation, s)
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

type Payment struct {
	ID               int64           `json:"id"`
	OrderID          int64           `json:"order"`
	Method           Method          `json:"method"`
	Amount           decimal.Decimal `json:"amount"`
	Status           Status          `json:"payment_status"`
	GatewayOrderID   *string         `json:"gateway_order_id"`
	GatewayPaymentID *string         `json:"gateway_payment_id"`
	GatewaySignature *string         `json:"-"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// OrderRef is the part of an order a payment decision reads.
type OrderRef struct {
	ID         int64
	UserID     int64
	Status     orders.Status
	TotalPrice decimal.Decimal
}

type NewPayment struct {
	OrderID int64  `json:"order" validate:"required,gt=0"`
	Method  string `json:"method" validate:"required"`
}

type Verification struct {
	GatewayOrderID   string `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required"`
	Signature        string `json:"gateway_signature"`
}

// Created is returned by Create. Gateway fields are empty for cash on delivery.
type Created struct {
	Payment        Payment `json:"payment"`
	GatewayOrderID string  `json:"gateway_order_id,omitempty"`
	ClientSecret   string  `json:"client_secret,omitempty"`
	AmountMinor    int64   `json:"amount_minor"`
	Currency       string  `json:"currency"`
}
