package services

import (
	"context"
	"strings"
	"time"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/pkg/auth"
	"github.com/shashiranjanraj/bazaar/pkg/event"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/validate"
)

// RequestInput is the body of a new purchase or rental request.
type RequestInput struct {
	Message   string     `json:"message"    validate:"nullable,max=2000"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"   validate:"nullable,after_field=start_date"`
}

// TransitionInput carries the seller's decision on a request.
type TransitionInput struct {
	Status string `json:"status" validate:"required"`
}

// RequestService manages buyer requests and their accept/reject lifecycle.
type RequestService struct {
	products ProductStore
	requests RequestStore
}

// NewRequestService returns a RequestService over the given stores.
func NewRequestService(products ProductStore, requests RequestStore) *RequestService {
	return &RequestService{products: products, requests: requests}
}

// Create opens a pending request from the caller on a listing they do not own.
func (s *RequestService) Create(ctx context.Context, id *auth.Identity, productID string, in RequestInput) (*models.Request, error) {
	if id == nil {
		return nil, fail(ErrUnauthorized, "Unauthorized")
	}
	p, err := s.products.Find(ctx, productID)
	if err != nil {
		return nil, notFound(err, "Listing")
	}
	if p.OwnedBy(id.UserID) {
		return nil, fail(ErrForbidden, "You cannot request your own listing.")
	}

	in.Message = strings.TrimSpace(in.Message)
	errs := ValidationError{}
	for k, v := range validate.Struct(&in) {
		errs[k] = v
	}
	if p.Type != models.TypeRent && (in.StartDate != nil || in.EndDate != nil) {
		errs["start_date"] = "Rental dates are only allowed on rent listings."
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		errs["end_date"] = "The end date must be a date after or equal to start date."
	}
	if len(errs) > 0 {
		return nil, errs
	}

	r := &models.Request{
		ProductID:    p.ID,
		ProductTitle: p.Title,
		Kind:         p.Type,
		BuyerID:      id.UserID,
		BuyerName:    id.DisplayName(),
		SellerID:     p.Seller.ID,
		Status:       models.StatusPending,
		Message:      in.Message,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
	}
	if err := s.requests.Create(ctx, r); err != nil {
		return nil, err
	}

	event.Fire(ctx, event.RequestCreated, payloadOf(r))
	return r, nil
}

// ListForProduct returns every request on the listing for its seller and only
// the caller's own requests for anyone else.
func (s *RequestService) ListForProduct(ctx context.Context, id *auth.Identity, productID string) ([]models.Request, error) {
	if id == nil {
		return nil, fail(ErrUnauthorized, "Unauthorized")
	}
	p, err := s.products.Find(ctx, productID)
	if err != nil {
		return nil, notFound(err, "Listing")
	}
	buyer := id.UserID
	if p.OwnedBy(id.UserID) {
		buyer = ""
	}
	return orEmpty(s.requests.ForProduct(ctx, p.ID, buyer))
}

// Incoming lists requests on the caller's listings.
func (s *RequestService) Incoming(ctx context.Context, id *auth.Identity) ([]models.Request, error) {
	if id == nil {
		return nil, fail(ErrUnauthorized, "Unauthorized")
	}
	return orEmpty(s.requests.BySeller(ctx, id.UserID))
}

// Outgoing lists requests the caller has made.
func (s *RequestService) Outgoing(ctx context.Context, id *auth.Identity) ([]models.Request, error) {
	if id == nil {
		return nil, fail(ErrUnauthorized, "Unauthorized")
	}
	return orEmpty(s.requests.ByBuyer(ctx, id.UserID))
}

// Transition accepts or rejects a pending request. Only the seller may do it
// and a decided request never changes again.
func (s *RequestService) Transition(ctx context.Context, id *auth.Identity, requestID, status string) (*models.Request, error) {
	if id == nil {
		return nil, fail(ErrUnauthorized, "Unauthorized")
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if status != models.StatusAccepted && status != models.StatusRejected {
		return nil, &Error{Kind: ErrInvalidTransition, Msg: "The status must be accepted or rejected."}
	}

	r, err := s.requests.Find(ctx, requestID)
	if err != nil {
		return nil, notFound(err, "Request")
	}
	if r.SellerID != id.UserID {
		return nil, fail(ErrForbidden, "Only the seller can respond to this request.")
	}
	if !r.CanTransition(status) {
		return nil, fail(ErrConflict, "This request has already been %s.", r.Status)
	}

	moved, err := s.requests.Transition(ctx, r.ID, status)
	if err != nil {
		return nil, err
	}
	if !moved {
		// decided concurrently
		return nil, fail(ErrConflict, "This request has already been decided.")
	}
	r.Status = status

	logger.WithCtx(ctx).Info("request transitioned", "request_id", r.ID, "status", status)
	event.Fire(ctx, event.RequestTransitioned, payloadOf(r))
	return r, nil
}

func payloadOf(r *models.Request) event.RequestPayload {
	return event.RequestPayload{
		RequestID: r.ID,
		ListingID: r.ProductID,
		SellerID:  r.SellerID,
		BuyerID:   r.BuyerID,
		Status:    r.Status,
	}
}

func orEmpty(out []models.Request, err error) ([]models.Request, error) {
	if out == nil && err == nil {
		out = []models.Request{}
	}
	return out, err
}
