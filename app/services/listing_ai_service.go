package services

import (
	"context"
	"errors"
	"time"

	"github.com/shashiranjanraj/bazaar/pkg/ai"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/metrics"
	"github.com/shashiranjanraj/bazaar/pkg/validate"
)

// DetailsGenerator drafts a title and description from a listing photo.
// *ai.Client satisfies it.
type DetailsGenerator interface {
	Configured() bool
	GenerateListingDetails(ctx context.Context, photoDataURI, category string) (ai.Details, error)
}

type GenerateInput struct {
	PhotoDataURI string `json:"photo_data_uri" validate:"required,image_data_uri"`
	Category     string `json:"category"       validate:"required,in=Electronics,Vehicles,Furniture,Appliances,Real Estate"`
}

type ListingAIService struct {
	gen DetailsGenerator
}

func NewListingAIService(gen DetailsGenerator) *ListingAIService {
	return &ListingAIService{gen: gen}
}

// Generate asks the model for listing copy. An unconfigured endpoint is
// ErrUnavailable; any model or transport failure is ErrUpstream.
func (s *ListingAIService) Generate(ctx context.Context, in GenerateInput) (ai.Details, error) {
	if errs := validate.Struct(&in); validate.HasErrors(errs) {
		return ai.Details{}, ValidationError(errs)
	}
	if s.gen == nil || !s.gen.Configured() {
		metrics.AIGenerations.WithLabelValues("unavailable").Inc()
		return ai.Details{}, fail(ErrUnavailable, "AI listing generation is not configured")
	}

	start := time.Now()
	d, err := s.gen.GenerateListingDetails(ctx, in.PhotoDataURI, in.Category)
	metrics.AIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, ai.ErrNotConfigured) {
			metrics.AIGenerations.WithLabelValues("unavailable").Inc()
			return ai.Details{}, fail(ErrUnavailable, "AI listing generation is not configured")
		}
		metrics.AIGenerations.WithLabelValues("error").Inc()
		logger.WithCtx(ctx).Warn("ai: generation failed", "category", in.Category, "error", err)
		return ai.Details{}, fail(ErrUpstream, "Could not generate listing details. Please try again.")
	}

	metrics.AIGenerations.WithLabelValues("ok").Inc()
	return d, nil
}
