package services

import (
	"context"

	"github.com/shashiranjanraj/bazaar/app/models"
)

// The store interfaces are satisfied by the gorm repositories.

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	Save(ctx context.Context, u *models.User) error
}

type ProductStore interface {
	All(ctx context.Context) ([]models.Product, error)
	Find(ctx context.Context, id string) (*models.Product, error)
	BySeller(ctx context.Context, sellerID string) ([]models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	UpdateDetails(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id string) error
}

type ReviewStore interface {
	ForProduct(ctx context.Context, productID string) ([]models.Review, error)
	Create(ctx context.Context, r *models.Review) error
}

type RequestStore interface {
	Find(ctx context.Context, id string) (*models.Request, error)
	Create(ctx context.Context, r *models.Request) error
	ForProduct(ctx context.Context, productID, buyerID string) ([]models.Request, error)
	BySeller(ctx context.Context, sellerID string) ([]models.Request, error)
	ByBuyer(ctx context.Context, buyerID string) ([]models.Request, error)
	Transition(ctx context.Context, id, status string) (bool, error)
}
