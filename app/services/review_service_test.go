package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/pkg/auth"
)

func TestReviews(t *testing.T) {
	ctx := context.Background()
	products := newMemProducts()
	p := listing("Desk lamp", alice.UserID, models.CategoryFurniture, models.TypeSale, models.ConditionNew, 30)
	require.NoError(t, products.Create(ctx, &p))
	svc := NewReviewService(products, &memReviews{})

	r, err := svc.Add(ctx, bob, p.ID, ReviewInput{Rating: 4, Comment: " Bright enough. "})
	require.NoError(t, err)
	assert.Equal(t, "Bob", r.User)
	assert.Equal(t, auth.DefaultAvatar, r.Avatar)
	assert.Equal(t, "Bright enough.", r.Comment)

	_, err = svc.Add(ctx, alice, p.ID, ReviewInput{Rating: 5, Comment: "Love it"})
	require.NoError(t, err)

	list, err := svc.List(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Love it", list[0].Comment, "newest first")
}

func TestReviewRules(t *testing.T) {
	ctx := context.Background()
	products := newMemProducts()
	p := listing("Desk lamp", alice.UserID, models.CategoryFurniture, models.TypeSale, models.ConditionNew, 30)
	require.NoError(t, products.Create(ctx, &p))
	svc := NewReviewService(products, &memReviews{})

	var verr ValidationError
	for _, rating := range []int{0, 6} {
		_, err := svc.Add(ctx, bob, p.ID, ReviewInput{Rating: rating, Comment: "ok"})
		require.True(t, errors.As(err, &verr), "rating %d", rating)
		assert.Contains(t, verr, "rating")
	}

	_, err := svc.Add(ctx, bob, p.ID, ReviewInput{Rating: 3, Comment: "   "})
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr, "comment")

	_, err = svc.Add(ctx, bob, "missing", ReviewInput{Rating: 3, Comment: "ok"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.List(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Add(ctx, nil, p.ID, ReviewInput{Rating: 3, Comment: "ok"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}
