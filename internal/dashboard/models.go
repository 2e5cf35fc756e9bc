package dashboard

import (
	"time"

	"github.com/shopspring/decimal"

	"storefront-service/internal/orders"
)

// Report is the admin dashboard payload. Series are ordered oldest first.
type Report struct {
	MonthLabels     []string          `json:"last_6_months_labels"`
	Revenues        []decimal.Decimal `json:"revenues"`
	DayLabels       []string          `json:"last_30_days"`
	DailySales      []int64           `json:"last_30_days_sales"`
	ConfirmedOrders []int64           `json:"confirmed_orders"`
	DeliveredOrders []int64           `json:"delivered_orders"`
	CancelledOrders []int64           `json:"cancelled_orders"`
	TopProducts     []TopProduct      `json:"top_products"`
	Cards           []Card            `json:"card_items"`
	GeneratedAt     time.Time         `json:"generated_at"`
}

type TopProduct struct {
	ProductName string          `json:"product_name"`
	SalesPrice  decimal.Decimal `json:"sales_price"`
	Increment   float64         `json:"increment"`
}

type Card struct {
	Name       string  `json:"name"`
	Value      int64   `json:"value"`
	Increment  float64 `json:"increment"`
	TotalValue int64   `json:"total_value"`
}

// Bucket aggregates the orders of one status whose last update fell in bucket Index,
// counted backwards from the report time.
type Bucket struct {
	Index   int
	Status  orders.Status
	Orders  int64
	Revenue decimal.Decimal
}

type ProductSales struct {
	ProductName string
	Sales       decimal.Decimal
}

// Counts holds the rows created in the current window, the window before it, and overall.
type Counts struct {
	Current  int64
	Previous int64
	Total    int64
}

type Entity string

const (
	EntityCustomers  Entity = "Customers"
	EntityProducts   Entity = "Products"
	EntityCategories Entity = "Categories"
)
