package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/app/models"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// All returns every listing, newest first.
func (r *ProductRepository) All(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	err := r.db.WithContext(ctx).Order("created_at desc, id").Find(&out).Error
	return out, wrap("products: all", err)
}

func (r *ProductRepository) Find(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, wrap("products: find", err)
	}
	return &p, nil
}

// BySeller returns a seller's listings, newest first.
func (r *ProductRepository) BySeller(ctx context.Context, sellerID string) ([]models.Product, error) {
	var out []models.Product
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at desc, id").
		Find(&out).Error
	return out, wrap("products: by seller", err)
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	return wrap("products: create", r.db.WithContext(ctx).Create(p).Error)
}

// UpdateDetails writes the editable columns only. Seller and image never
// change after create.
func (r *ProductRepository) UpdateDetails(ctx context.Context, p *models.Product) error {
	res := r.db.WithContext(ctx).Model(p).
		Select("title", "description", "price", "category", "type", "condition").
		Updates(p)
	return wrap("products: update", res.Error)
}

// Delete removes the listing with its reviews and requests in one
// transaction.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.Request{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Product{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return wrap("products: delete", err)
}
