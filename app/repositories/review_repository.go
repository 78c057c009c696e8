package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/app/models"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// ForProduct returns a listing's reviews, newest first.
func (r *ReviewRepository) ForProduct(ctx context.Context, productID string) ([]models.Review, error) {
	var out []models.Review
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at desc, id").
		Find(&out).Error
	return out, wrap("reviews: for product", err)
}

func (r *ReviewRepository) Create(ctx context.Context, rv *models.Review) error {
	return wrap("reviews: create", r.db.WithContext(ctx).Create(rv).Error)
}
