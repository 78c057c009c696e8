package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/app/models"
)

type requestFixture struct {
	svc      *RequestService
	requests *memRequests
	sale     models.Product
	rent     models.Product
}

func newRequestFixture(t *testing.T) requestFixture {
	t.Helper()
	products := newMemProducts()
	sale := listing("Sofa", alice.UserID, models.CategoryFurniture, models.TypeSale, models.ConditionUsed, 120)
	rent := listing("Camper van", alice.UserID, models.CategoryVehicles, models.TypeRent, models.ConditionUsed, 90)
	require.NoError(t, products.Create(context.Background(), &sale))
	require.NoError(t, products.Create(context.Background(), &rent))

	reqs := &memRequests{}
	return requestFixture{svc: NewRequestService(products, reqs), requests: reqs, sale: sale, rent: rent}
}

func day(d int) *time.Time {
	t := time.Date(2026, 7, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestCreateRequest(t *testing.T) {
	fx := newRequestFixture(t)

	r, err := fx.svc.Create(context.Background(), bob, fx.sale.ID, RequestInput{Message: "  Still available? "})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, r.Status)
	assert.Equal(t, "Still available?", r.Message)
	assert.Equal(t, alice.UserID, r.SellerID)
	assert.Equal(t, "Bob", r.BuyerName)
	assert.Equal(t, models.TypeSale, r.Kind)
	assert.Equal(t, "Sofa", r.ProductTitle)
}

func TestCreateRequestRules(t *testing.T) {
	fx := newRequestFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Create(ctx, alice, fx.sale.ID, RequestInput{})
	assert.ErrorIs(t, err, ErrForbidden, "seller cannot request own listing")

	_, err = fx.svc.Create(ctx, bob, "missing", RequestInput{})
	assert.ErrorIs(t, err, ErrNotFound)

	var verr ValidationError
	_, err = fx.svc.Create(ctx, bob, fx.sale.ID, RequestInput{StartDate: day(1), EndDate: day(3)})
	require.True(t, errors.As(err, &verr), "dates only on rent listings")
	assert.Contains(t, verr, "start_date")

	_, err = fx.svc.Create(ctx, bob, fx.rent.ID, RequestInput{StartDate: day(5), EndDate: day(3)})
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr, "end_date")

	r, err := fx.svc.Create(ctx, bob, fx.rent.ID, RequestInput{StartDate: day(3), EndDate: day(3)})
	require.NoError(t, err, "same-day rental is allowed")
	assert.Equal(t, models.TypeRent, r.Kind)
}

func TestListRequestsForProduct(t *testing.T) {
	fx := newRequestFixture(t)
	ctx := context.Background()
	carol := *bob
	carol.UserID, carol.Name = "u-carol", "Carol"

	_, err := fx.svc.Create(ctx, bob, fx.sale.ID, RequestInput{})
	require.NoError(t, err)
	_, err = fx.svc.Create(ctx, &carol, fx.sale.ID, RequestInput{})
	require.NoError(t, err)

	seller, err := fx.svc.ListForProduct(ctx, alice, fx.sale.ID)
	require.NoError(t, err)
	assert.Len(t, seller, 2)

	own, err := fx.svc.ListForProduct(ctx, bob, fx.sale.ID)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, bob.UserID, own[0].BuyerID)

	in, err := fx.svc.Incoming(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, in, 2)

	out, err := fx.svc.Outgoing(ctx, &carol)
	require.NoError(t, err)
	assert.Len(t, out, 1)

	none, err := fx.svc.Outgoing(ctx, alice)
	require.NoError(t, err)
	assert.NotNil(t, none)
}

func TestTransitionRequest(t *testing.T) {
	fx := newRequestFixture(t)
	ctx := context.Background()
	r, err := fx.svc.Create(ctx, bob, fx.sale.ID, RequestInput{})
	require.NoError(t, err)

	_, err = fx.svc.Transition(ctx, alice, r.ID, "pending")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = fx.svc.Transition(ctx, bob, r.ID, models.StatusAccepted)
	assert.ErrorIs(t, err, ErrForbidden, "buyer cannot accept")

	got, err := fx.svc.Transition(ctx, alice, r.ID, "Accepted")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, got.Status)

	_, err = fx.svc.Transition(ctx, alice, r.ID, models.StatusRejected)
	assert.ErrorIs(t, err, ErrConflict, "decided requests never revert")

	stored, err := fx.requests.Find(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, stored.Status)

	_, err = fx.svc.Transition(ctx, alice, "missing", models.StatusRejected)
	assert.ErrorIs(t, err, ErrNotFound)
}

// racingRequests reports the row as already decided when the conditional
// update runs.
type racingRequests struct{ *memRequests }

func (racingRequests) Transition(context.Context, string, string) (bool, error) { return false, nil }

func TestTransitionLosesRace(t *testing.T) {
	fx := newRequestFixture(t)
	ctx := context.Background()
	r, err := fx.svc.Create(ctx, bob, fx.sale.ID, RequestInput{})
	require.NoError(t, err)

	svc := NewRequestService(fx.svc.products, racingRequests{fx.requests})
	_, err = svc.Transition(ctx, alice, r.ID, models.StatusRejected)
	assert.ErrorIs(t, err, ErrConflict)
}
