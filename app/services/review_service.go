package services

import (
	"context"
	"strings"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/pkg/auth"
	"github.com/shashiranjanraj/bazaar/pkg/validate"
)

type ReviewInput struct {
	Rating  int    `json:"rating"  validate:"required,between=1,5"`
	Comment string `json:"comment" validate:"required,max=2000"`
}

type ReviewService struct {
	products ProductStore
	reviews  ReviewStore
}

func NewReviewService(products ProductStore, reviews ReviewStore) *ReviewService {
	return &ReviewService{products: products, reviews: reviews}
}

// List returns a listing's reviews, newest first.
func (s *ReviewService) List(ctx context.Context, productID string) ([]models.Review, error) {
	if _, err := s.products.Find(ctx, productID); err != nil {
		return nil, notFound(err, "Listing")
	}
	out, err := s.reviews.ForProduct(ctx, productID)
	if out == nil && err == nil {
		out = []models.Review{}
	}
	return out, err
}

// Add appends a review signed with the caller's display name and avatar.
func (s *ReviewService) Add(ctx context.Context, id *auth.Identity, productID string, in ReviewInput) (*models.Review, error) {
	if id == nil {
		return nil, fail(ErrUnauthorized, "Unauthorized")
	}
	in.Comment = strings.TrimSpace(in.Comment)
	if errs := validate.Struct(&in); validate.HasErrors(errs) {
		return nil, ValidationError(errs)
	}
	if _, err := s.products.Find(ctx, productID); err != nil {
		return nil, notFound(err, "Listing")
	}

	r := &models.Review{
		ProductID: productID,
		UserID:    id.UserID,
		User:      id.DisplayName(),
		Avatar:    id.AvatarURL(),
		Rating:    in.Rating,
		Comment:   in.Comment,
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}
