package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront-service/internal/apperr"
	"storefront-service/internal/stores/postgres"
	"storefront-service/pkg/paginate"
)

var (
	ErrProductNotFound   = fmt.Errorf("%w: product not found", apperr.ErrNotFound)
	ErrCategoryNotFound  = fmt.Errorf("%w: category not found", apperr.ErrNotFound)
	ErrReviewNotFound    = fmt.Errorf("%w: review not found", apperr.ErrNotFound)
	ErrDuplicateReview   = fmt.Errorf("%w: you have already reviewed this product", apperr.ErrConflict)
	ErrDuplicateCategory = fmt.Errorf("%w: category name or slug already exists", apperr.ErrConflict)
)

type Conf struct {
	db *gorm.DB
}

func NewConf(db *gorm.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// DiscountedPrice applies a percentage discount, rounded to two places.
func DiscountedPrice(price decimal.Decimal, discount *int) decimal.Decimal {
	if discount == nil || *discount <= 0 {
		return price
	}
	pct := decimal.NewFromInt(int64(100 - *discount))
	return price.Mul(pct).Div(decimal.NewFromInt(100)).Round(2)
}

func (c *Conf) withProductRelations(ctx context.Context) *gorm.DB {
	return c.db.WithContext(ctx).Preload("Category").Preload("Images")
}

// ListProducts returns a page of products, newest first, and the total count.
func (c *Conf) ListProducts(ctx context.Context, p paginate.Page) ([]Product, int64, error) {
	var total int64
	if err := c.db.WithContext(ctx).Model(&Product{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}
	var products []Product
	err := c.withProductRelations(ctx).
		Order("created_at DESC, id DESC").
		Offset(p.Offset()).Limit(p.Limit()).
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

func (c *Conf) GetProduct(ctx context.Context, id int64) (Product, error) {
	var product Product
	if err := c.withProductRelations(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (c *Conf) ListByCategorySlug(ctx context.Context, slug string, p paginate.Page) ([]Product, int64, error) {
	var category Category
	if err := c.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrCategoryNotFound
		}
		return nil, 0, fmt.Errorf("failed to get category: %w", err)
	}

	query := c.db.WithContext(ctx).Model(&Product{}).Where("category_id = ?", category.ID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}
	var products []Product
	err := c.withProductRelations(ctx).
		Where("category_id = ?", category.ID).
		Order("created_at DESC, id DESC").
		Offset(p.Offset()).Limit(p.Limit()).
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

func (c *Conf) CreateProduct(ctx context.Context, np NewProduct) (Product, error) {
	product := Product{
		Name:        np.Name,
		Description: np.Description,
		Price:       np.Price.Round(2),
		Discount:    np.Discount,
		Stock:       np.Stock,
		Image:       np.Image,
		CategoryID:  np.CategoryID,
	}
	for _, img := range np.Images {
		product.Images = append(product.Images, ProductImage{Image: img})
	}
	if err := c.db.WithContext(ctx).Create(&product).Error; err != nil {
		return Product{}, fmt.Errorf("failed to create product: %w", err)
	}
	return c.GetProduct(ctx, product.ID)
}

func (c *Conf) UpdateProduct(ctx context.Context, id int64, up UpdateProduct) (Product, error) {
	updates := map[string]any{}
	if up.Name != nil {
		updates["name"] = *up.Name
	}
	if up.Description != nil {
		updates["description"] = *up.Description
	}
	if up.Price != nil {
		updates["price"] = up.Price.Round(2)
	}
	if up.Discount != nil {
		updates["discount"] = *up.Discount
	}
	if up.Stock != nil {
		updates["stock"] = *up.Stock
	}
	if up.Image != nil {
		updates["image"] = *up.Image
	}
	if up.CategoryID != nil {
		updates["category_id"] = *up.CategoryID
	}

	if len(updates) == 0 {
		return c.GetProduct(ctx, id)
	}
	res := c.db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return Product{}, fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return Product{}, ErrProductNotFound
	}
	return c.GetProduct(ctx, id)
}

func (c *Conf) DeleteProduct(ctx context.Context, id int64) error {
	res := c.db.WithContext(ctx).Delete(&Product{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (c *Conf) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (c *Conf) FeaturedCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.db.WithContext(ctx).Where("featured = ?", true).Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list featured categories: %w", err)
	}
	return categories, nil
}

func (c *Conf) GetCategory(ctx context.Context, id int64) (Category, error) {
	var category Category
	if err := c.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Category{}, ErrCategoryNotFound
		}
		return Category{}, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

func (c *Conf) CreateCategory(ctx context.Context, nc NewCategory) (Category, error) {
	category := Category{
		Name:        nc.Name,
		Slug:        nc.Slug,
		Description: nc.Description,
		Quote:       nc.Quote,
		Image:       nc.Image,
		Featured:    nc.Featured,
	}
	if err := c.db.WithContext(ctx).Create(&category).Error; err != nil {
		if postgres.IsUniqueViolation(err) {
			return Category{}, ErrDuplicateCategory
		}
		return Category{}, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

// lockProduct takes a row lock so concurrent review writes recompute the rating in turn.
func lockProduct(tx *gorm.DB, id int64) error {
	var product Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to lock product: %w", err)
	}
	return nil
}
