package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/pkg/ai"
)

type stubGenerator struct {
	configured bool
	details    ai.Details
	err        error
	category   string
}

func (s *stubGenerator) Configured() bool { return s.configured }

func (s *stubGenerator) GenerateListingDetails(_ context.Context, _, category string) (ai.Details, error) {
	s.category = category
	return s.details, s.err
}

const tinyPNG = "data:image/png;base64,iVBORw0KGgo="

func TestGenerateDetails(t *testing.T) {
	gen := &stubGenerator{configured: true, details: ai.Details{Title: "Red kettle", Description: "Boils fast."}}
	svc := NewListingAIService(gen)

	d, err := svc.Generate(context.Background(), GenerateInput{PhotoDataURI: tinyPNG, Category: models.CategoryAppliances})
	require.NoError(t, err)
	assert.Equal(t, "Red kettle", d.Title)
	assert.Equal(t, models.CategoryAppliances, gen.category)
}

func TestGenerateDetailsErrors(t *testing.T) {
	ctx := context.Background()
	in := GenerateInput{PhotoDataURI: tinyPNG, Category: models.CategoryAppliances}

	var verr ValidationError
	_, err := NewListingAIService(&stubGenerator{configured: true}).Generate(ctx, GenerateInput{PhotoDataURI: "data:text/plain;base64,aGk=", Category: "Boats"})
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr, "photo_data_uri")
	assert.Contains(t, verr, "category")

	_, err = NewListingAIService(&stubGenerator{}).Generate(ctx, in)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = NewListingAIService(nil).Generate(ctx, in)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = NewListingAIService(&stubGenerator{configured: true, err: ai.ErrUpstream}).Generate(ctx, in)
	assert.ErrorIs(t, err, ErrUpstream)
}
