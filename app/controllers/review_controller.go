package controllers

import (
	"github.com/shashiranjanraj/bazaar/app/services"
	"github.com/shashiranjanraj/bazaar/pkg/ctx"
)

type ReviewController struct {
	reviews *services.ReviewService
}

func NewReviewController(reviews *services.ReviewService) *ReviewController {
	return &ReviewController{reviews: reviews}
}

// Index handles GET /api/listings/{id}/reviews.
func (rc *ReviewController) Index(c *ctx.Context) {
	list, err := rc.reviews.List(c.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Success(list)
}

// Store handles POST /api/listings/{id}/reviews.
func (rc *ReviewController) Store(c *ctx.Context) {
	var in services.ReviewInput
	if !c.BindJSON(&in) {
		return
	}
	r, err := rc.reviews.Add(c.Context(), c.Identity(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Created(r)
}
