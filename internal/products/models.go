package products

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"not null" json:"description"`
	Quote       string    `gorm:"not null" json:"quote"`
	Image       string    `gorm:"not null" json:"image"`
	Featured    bool      `gorm:"not null;default:false" json:"featured"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Category) TableName() string {
	return "categories"
}

type Product struct {
	ID            int64           `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"not null" json:"name"`
	Description   string          `gorm:"not null" json:"description"`
	Price         decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Discount      *int            `json:"discount"`
	Stock         int             `gorm:"not null" json:"stock"`
	Image         string          `gorm:"not null" json:"image"`
	CategoryID    *int64          `json:"category_id"`
	Category      *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Images        []ProductImage  `gorm:"foreignKey:ProductID" json:"images"`
	AverageRating decimal.Decimal `gorm:"type:numeric(2,1);not null;default:0" json:"average_rating"`
	TotalReviews  int             `gorm:"not null;default:0" json:"total_reviews"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (p *Product) TableName() string {
	return "products"
}

// DiscountedPrice is the unit price after the product's percentage discount.
func (p Product) DiscountedPrice() decimal.Decimal {
	return DiscountedPrice(p.Price, p.Discount)
}

type ProductImage struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	ProductID int64     `gorm:"not null" json:"product_id"`
	Image     string    `gorm:"not null" json:"image"`
	CreatedAt time.Time `json:"created_at"`
}

func (i *ProductImage) TableName() string {
	return "product_images"
}

type Review struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	ProductID int64     `gorm:"not null" json:"product_id"`
	UserID    int64     `gorm:"not null" json:"user_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"not null;default:''" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Review) TableName() string {
	return "reviews"
}

type NewProduct struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	Discount    *int            `json:"discount" validate:"omitempty,min=0,max=100"`
	Stock       int             `json:"stock" validate:"min=0"`
	Image       string          `json:"image" validate:"required,url"`
	CategoryID  *int64          `json:"category_id"`
	Images      []string        `json:"images" validate:"omitempty,dive,url"`
}

// Check covers what struct tags cannot express for decimals.
func (np NewProduct) Check() error {
	if np.Price.IsNegative() || np.Price.IsZero() {
		return errors.New("price must be greater than 0")
	}
	return nil
}

type UpdateProduct struct {
	Name        *string          `json:"name" validate:"omitempty,max=200"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Discount    *int             `json:"discount" validate:"omitempty,min=0,max=100"`
	Stock       *int             `json:"stock" validate:"omitempty,min=0"`
	Image       *string          `json:"image" validate:"omitempty,url"`
	CategoryID  *int64           `json:"category_id"`
}

func (up UpdateProduct) Check() error {
	if up.Price != nil && !up.Price.IsPositive() {
		return errors.New("price must be greater than 0")
	}
	return nil
}

type NewCategory struct {
	Name        string `json:"name" validate:"required,max=200"`
	Slug        string `json:"slug" validate:"required,max=200,lowercase"`
	Description string `json:"description" validate:"required"`
	Quote       string `json:"quote" validate:"required,max=200"`
	Image       string `json:"image" validate:"required,url"`
	Featured    bool   `json:"featured"`
}

type NewReview struct {
	ProductID int64  `json:"product" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment"`
}

type UpdateReview struct {
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment"`
}
