package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"storefront-service/internal/stores/postgres"
	"storefront-service/pkg/paginate"
)

// RoundRating turns an aggregate average into the cached one-decimal rating.
func RoundRating(avg decimal.NullDecimal) decimal.Decimal {
	if !avg.Valid {
		return decimal.Zero
	}
	return avg.Decimal.Round(1)
}

type ratingAggregate struct {
	Avg   decimal.NullDecimal
	Count int64
}

func recomputeRating(tx *gorm.DB, productID int64) error {
	var agg ratingAggregate
	err := tx.Model(&Review{}).
		Select("AVG(rating) AS avg, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&agg).Error
	if err != nil {
		return fmt.Errorf("failed to aggregate reviews: %w", err)
	}
	err = tx.Model(&Product{}).Where("id = ?", productID).Updates(map[string]any{
		"average_rating": RoundRating(agg.Avg),
		"total_reviews":  agg.Count,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to store rating: %w", err)
	}
	return nil
}

func (c *Conf) ListReviews(ctx context.Context, productID int64, p paginate.Page) ([]Review, int64, error) {
	query := c.db.WithContext(ctx).Model(&Review{}).Where("product_id = ?", productID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	var reviews []Review
	err := c.db.WithContext(ctx).Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Offset(p.Offset()).Limit(p.Limit()).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, total, nil
}

func (c *Conf) GetReview(ctx context.Context, id int64) (Review, error) {
	var review Review
	if err := c.db.WithContext(ctx).First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Review{}, ErrReviewNotFound
		}
		return Review{}, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

func (c *Conf) CreateReview(ctx context.Context, userID int64, nr NewReview) (Review, error) {
	review := Review{ProductID: nr.ProductID, UserID: userID, Rating: nr.Rating, Comment: nr.Comment}
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProduct(tx, nr.ProductID); err != nil {
			return err
		}
		var existing int64
		if err := tx.Model(&Review{}).Where("product_id = ? AND user_id = ?", nr.ProductID, userID).Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check review: %w", err)
		}
		if existing > 0 {
			return ErrDuplicateReview
		}
		if err := tx.Create(&review).Error; err != nil {
			if postgres.IsUniqueViolation(err) {
				return ErrDuplicateReview
			}
			return fmt.Errorf("failed to create review: %w", err)
		}
		return recomputeRating(tx, nr.ProductID)
	})
	if err != nil {
		return Review{}, err
	}
	return review, nil
}

// ownedReview loads a review of userID under lock of its product; reviews of other users are not found.
func ownedReview(tx *gorm.DB, userID, id int64) (Review, error) {
	var review Review
	if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Review{}, ErrReviewNotFound
		}
		return Review{}, fmt.Errorf("failed to get review: %w", err)
	}
	if err := lockProduct(tx, review.ProductID); err != nil {
		return Review{}, err
	}
	return review, nil
}

func (c *Conf) UpdateReview(ctx context.Context, userID, id int64, ur UpdateReview) (Review, error) {
	var review Review
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		review, err = ownedReview(tx, userID, id)
		if err != nil {
			return err
		}
		if ur.Rating != nil {
			review.Rating = *ur.Rating
		}
		if ur.Comment != nil {
			review.Comment = *ur.Comment
		}
		if err := tx.Save(&review).Error; err != nil {
			return fmt.Errorf("failed to update review: %w", err)
		}
		return recomputeRating(tx, review.ProductID)
	})
	if err != nil {
		return Review{}, err
	}
	return review, nil
}

func (c *Conf) DeleteReview(ctx context.Context, userID, id int64) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		review, err := ownedReview(tx, userID, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(&Review{}, review.ID).Error; err != nil {
			return fmt.Errorf("failed to delete review: %w", err)
		}
		return recomputeRating(tx, review.ProductID)
	})
}
