package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product is the slice of catalog data a cart line needs.
type Product struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Discount        *int            `json:"discount"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
	Stock           int             `json:"stock"`
	Image           string          `json:"image"`
}

type CartItem struct {
	ID        int64     `json:"id"`
	CartID    int64     `json:"cart_id"`
	Product   Product   `json:"product"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// Subtotal is price times quantity, the amount the line contributes to an order total.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type CartResponse struct {
	ID         int64           `json:"id"`
	Items      []CartItem      `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

func newCartResponse(c Cart, items []CartItem) CartResponse {
	resp := CartResponse{ID: c.ID, Items: items, TotalPrice: decimal.Zero}
	if resp.Items == nil {
		resp.Items = []CartItem{}
	}
	for _, it := range items {
		resp.TotalItems += it.Quantity
		resp.TotalPrice = resp.TotalPrice.Add(it.Subtotal())
	}
	return resp
}
