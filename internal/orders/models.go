package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID                int64           `json:"id"`
	UserID            int64           `json:"user_id"`
	ShippingAddressID *int64          `json:"shipping_address"`
	BillingAddressID  *int64          `json:"billing_address"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	Status            Status          `json:"status"`
	Items             []Item          `json:"items"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Item is a snapshot of a cart line taken when the order was placed.
type Item struct {
	ID              int64           `json:"id"`
	OrderID         int64           `json:"order_id"`
	ProductID       *int64          `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Quantity        int             `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
}

// CartLine is a locked cart row joined with its product.
type CartLine struct {
	ItemID      int64
	ProductID   int64
	ProductName string
	Price       decimal.Decimal
	Discount    *int
	Quantity    int
}

type NewOrder struct {
	ShippingAddressID int64  `json:"shipping_address" validate:"required,gt=0"`
	BillingAddressID  *int64 `json:"billing_address" validate:"omitempty,gt=0"`
}

type StatusUpdate struct {
	Status string `json:"status" validate:"required"`
}

type ShippingUpdate struct {
	ShippingAddressID int64 `json:"shipping_address" validate:"required,gt=0"`
}
