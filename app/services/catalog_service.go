package services

import (
	"context"
	"strings"
	"time"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/pkg/cache"
)

// catalogKey caches the full listing set; filters run on the cached copy.
const catalogKey = "catalog:products"

// Criteria narrows the catalog. Zero values mean "no filter"; "all" does too
// for the enum fields.
type Criteria struct {
	Search    string
	Category  string
	Condition string
	Type      string
	MinPrice  *float64
	MaxPrice  *float64
}

// Filter returns the products matching every criterion, in input order.
func Filter(products []models.Product, c Criteria) []models.Product {
	search := strings.ToLower(strings.TrimSpace(c.Search))
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if search != "" && !strings.Contains(strings.ToLower(p.Title), search) {
			continue
		}
		if !matchEnum(c.Category, p.Category) || !matchEnum(c.Condition, p.Condition) || !matchEnum(c.Type, p.Type) {
			continue
		}
		if c.MinPrice != nil && p.Price < *c.MinPrice {
			continue
		}
		if c.MaxPrice != nil && p.Price > *c.MaxPrice {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchEnum(want, got string) bool {
	want = strings.TrimSpace(want)
	return want == "" || strings.EqualFold(want, "all") || want == got
}

// CatalogService serves the browsable listing catalogue.
type CatalogService struct {
	products ProductStore
	ttl      time.Duration
}

// NewCatalogService caches the full listing set for ttl; ttl <= 0 reads through.
func NewCatalogService(products ProductStore, ttl time.Duration) *CatalogService {
	return &CatalogService{products: products, ttl: ttl}
}

// All returns every listing, newest first, from the cache when warm.
func (s *CatalogService) All(ctx context.Context) ([]models.Product, error) {
	var all []models.Product
	if s.ttl <= 0 {
		return s.products.All(ctx)
	}
	err := cache.Remember(ctx, catalogKey, s.ttl, &all, func() (interface{}, error) {
		return s.products.All(ctx)
	})
	return all, err
}

// Browse loads the catalog and applies c.
func (s *CatalogService) Browse(ctx context.Context, c Criteria) ([]models.Product, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(all, c), nil
}

// Invalidate drops the cached catalog after a listing changes.
func (s *CatalogService) Invalidate(ctx context.Context) error {
	return cache.Forget(ctx, catalogKey)
}
