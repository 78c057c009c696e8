package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/app/models"
)

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) Find(ctx context.Context, id string) (*models.Request, error) {
	var req models.Request
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, wrap("requests: find", err)
	}
	return &req, nil
}

func (r *RequestRepository) Create(ctx context.Context, req *models.Request) error {
	return wrap("requests: create", r.db.WithContext(ctx).Create(req).Error)
}

// ForProduct lists requests on a listing, newest first. A non-empty buyerID
// narrows the list to that buyer's requests.
func (r *RequestRepository) ForProduct(ctx context.Context, productID, buyerID string) ([]models.Request, error) {
	q := r.db.WithContext(ctx).Where("product_id = ?", productID)
	if buyerID != "" {
		q = q.Where("buyer_id = ?", buyerID)
	}
	var out []models.Request
	err := q.Order("created_at desc, id").Find(&out).Error
	return out, wrap("requests: for product", err)
}

// BySeller lists requests received on a seller's listings.
func (r *RequestRepository) BySeller(ctx context.Context, sellerID string) ([]models.Request, error) {
	var out []models.Request
	err := r.db.WithContext(ctx).Where("seller_id = ?", sellerID).Order("created_at desc, id").Find(&out).Error
	return out, wrap("requests: by seller", err)
}

// ByBuyer lists requests a buyer has sent.
func (r *RequestRepository) ByBuyer(ctx context.Context, buyerID string) ([]models.Request, error) {
	var out []models.Request
	err := r.db.WithContext(ctx).Where("buyer_id = ?", buyerID).Order("created_at desc, id").Find(&out).Error
	return out, wrap("requests: by buyer", err)
}

// Transition moves a pending request to status. It reports false when the
// request is no longer pending, so concurrent decisions cannot both win.
func (r *RequestRepository) Transition(ctx context.Context, id, status string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Request{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Update("status", status)
	if res.Error != nil {
		return false, wrap("requests: transition", res.Error)
	}
	return res.RowsAffected == 1, nil
}
