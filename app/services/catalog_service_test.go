package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/pkg/cache"
)

func f(v float64) *float64 { return &v }

func catalogFixture() []models.Product {
	return []models.Product{
		listing("iPhone 13 Pro", "s1", models.CategoryElectronics, models.TypeSale, models.ConditionUsed, 699),
		listing("Mountain bike", "s2", models.CategoryVehicles, models.TypeRent, models.ConditionUsed, 25),
		listing("Oak dining table", "s1", models.CategoryFurniture, models.TypeSale, models.ConditionNew, 450),
		listing("iPad Air", "s3", models.CategoryElectronics, models.TypeRent, models.ConditionNew, 40),
	}
}

func titles(ps []models.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Title)
	}
	return out
}

func TestFilterCriteria(t *testing.T) {
	all := catalogFixture()

	cases := []struct {
		name string
		c    Criteria
		want []string
	}{
		{"empty criteria keeps everything", Criteria{}, []string{"iPhone 13 Pro", "Mountain bike", "Oak dining table", "iPad Air"}},
		{"all is no filter", Criteria{Category: "all", Type: "all", Condition: "all"}, []string{"iPhone 13 Pro", "Mountain bike", "Oak dining table", "iPad Air"}},
		{"search is case-insensitive", Criteria{Search: "  IP "}, []string{"iPhone 13 Pro", "iPad Air"}},
		{"category", Criteria{Category: models.CategoryElectronics}, []string{"iPhone 13 Pro", "iPad Air"}},
		{"type and condition", Criteria{Type: models.TypeRent, Condition: models.ConditionNew}, []string{"iPad Air"}},
		{"bounds are inclusive", Criteria{MinPrice: f(40), MaxPrice: f(450)}, []string{"Oak dining table", "iPad Air"}},
		{"unknown category matches nothing", Criteria{Category: "Boats"}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, titles(Filter(all, tc.c)))
		})
	}
}

func TestFilterIsIdempotentAndPure(t *testing.T) {
	all := catalogFixture()
	c := Criteria{Category: models.CategoryElectronics, MaxPrice: f(700)}

	once := Filter(all, c)
	twice := Filter(once, c)
	assert.Equal(t, once, twice)
	assert.Len(t, all, 4, "input is not modified")
	assert.NotNil(t, Filter(nil, c))
}

func TestCatalogCachesUntilInvalidated(t *testing.T) {
	cache.Flush()
	t.Cleanup(cache.Flush)
	ctx := context.Background()

	store := newMemProducts(catalogFixture()...)
	svc := NewCatalogService(store, time.Minute)

	first, err := svc.All(ctx)
	require.NoError(t, err)
	require.Len(t, first, 4)
	assert.Equal(t, "iPad Air", first[0].Title, "newest first")

	_, err = svc.Browse(ctx, Criteria{Search: "bike"})
	require.NoError(t, err)
	assert.Equal(t, 1, store.all, "second read served from cache")

	require.NoError(t, store.Create(ctx, &models.Product{Title: "New lamp"}))
	require.NoError(t, svc.Invalidate(ctx))

	again, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Len(t, again, 5)
	assert.Equal(t, 2, store.all)
}

func TestCatalogWithoutTTLReadsThrough(t *testing.T) {
	store := newMemProducts(catalogFixture()...)
	svc := NewCatalogService(store, 0)

	_, _ = svc.All(context.Background())
	_, _ = svc.All(context.Background())
	assert.Equal(t, 2, store.all)
}
