package kafka

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicOrderCreated       = `storefront.order-created`
	TopicOrderStatusChanged = `storefront.order-status-changed`
	TopicPaymentCompleted   = `storefront.payment-completed`
)

type OrderItemEvent struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type OrderCreatedEvent struct {
	OrderID    int64            `json:"order_id"`
	UserID     int64            `json:"user_id"`
	TotalPrice decimal.Decimal  `json:"total_price"`
	Items      []OrderItemEvent `json:"items"`
	CreatedAt  time.Time        `json:"created_at"`
}

type OrderStatusChangedEvent struct {
	OrderID   int64     `json:"order_id"`
	UserID    int64     `json:"user_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedAt time.Time `json:"changed_at"`
}

type PaymentCompletedEvent struct {
	OrderID          int64           `json:"order_id"`
	PaymentID        int64           `json:"payment_id"`
	Method           string          `json:"method"`
	Amount           decimal.Decimal `json:"amount"`
	GatewayPaymentID string          `json:"gateway_payment_id,omitempty"`
	CompletedAt      time.Time       `json:"completed_at"`
}
