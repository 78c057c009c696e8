// Package gql exposes the read side of the catalog as a GraphQL schema:
//
//	{ listings(category: "Electronics", maxPrice: 500) { id title price seller { name } } }
//	{ listing(id: "…") { title reviewCount averageRating reviews { user rating } } }
package gql

import (
	"context"
	"errors"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/services"
	pkggql "github.com/shashiranjanraj/bazaar/pkg/graphql"
)

// Catalog answers listing searches. *services.CatalogService satisfies it.
type Catalog interface {
	Browse(ctx context.Context, c services.Criteria) ([]models.Product, error)
}

// Listings loads one listing with its reviews. *services.ListingService
// satisfies it.
type Listings interface {
	Get(ctx context.Context, id string) (*services.ListingDetail, error)
}

var sellerType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Seller",
	Fields: graphql.Fields{
		"id":     &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"name":   &graphql.Field{Type: graphql.String},
		"avatar": &graphql.Field{Type: graphql.String},
	},
})

var reviewType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Review",
	Fields: graphql.Fields{
		"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"user":      &graphql.Field{Type: graphql.String},
		"avatar":    &graphql.Field{Type: graphql.String},
		"rating":    &graphql.Field{Type: graphql.Int},
		"comment":   &graphql.Field{Type: graphql.String},
		"createdAt": &graphql.Field{Type: graphql.String},
	},
})

func listingFields() graphql.Fields {
	return graphql.Fields{
		"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"title":       &graphql.Field{Type: graphql.String},
		"description": &graphql.Field{Type: graphql.String},
		"price":       &graphql.Field{Type: graphql.Float},
		"category":    &graphql.Field{Type: graphql.String},
		"type":        &graphql.Field{Type: graphql.String},
		"condition":   &graphql.Field{Type: graphql.String},
		"imageUrl":    &graphql.Field{Type: graphql.String},
		"seller":      &graphql.Field{Type: sellerType},
		"createdAt":   &graphql.Field{Type: graphql.String},
	}
}

var listingType = graphql.NewObject(graphql.ObjectConfig{
	Name:   "Listing",
	Fields: listingFields(),
})

var listingDetailType = graphql.NewObject(graphql.ObjectConfig{
	Name: "ListingDetail",
	Fields: func() graphql.Fields {
		f := listingFields()
		f["reviews"] = &graphql.Field{Type: graphql.NewList(reviewType)}
		f["reviewCount"] = &graphql.Field{Type: graphql.Int}
		f["averageRating"] = &graphql.Field{Type: graphql.Float}
		return f
	}(),
})

// NewSchema builds the catalog schema over catalog and listings.
func NewSchema(catalog Catalog, listings Listings) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"listings": &graphql.Field{
				Type: graphql.NewList(listingType),
				Args: graphql.FieldConfigArgument{
					"search":    &graphql.ArgumentConfig{Type: graphql.String},
					"category":  &graphql.ArgumentConfig{Type: graphql.String},
					"condition": &graphql.ArgumentConfig{Type: graphql.String},
					"type":      &graphql.ArgumentConfig{Type: graphql.String},
					"minPrice":  &graphql.ArgumentConfig{Type: graphql.Float},
					"maxPrice":  &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					products, err := catalog.Browse(p.Context, criteriaFrom(p.Args))
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, 0, len(products))
					for i := range products {
						out = append(out, productMap(&products[i]))
					}
					return out, nil
				},
			},
			"listing": &graphql.Field{
				Type: listingDetailType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					d, err := listings.Get(p.Context, id)
					if errors.Is(err, services.ErrNotFound) {
						return nil, nil
					}
					if err != nil {
						return nil, err
					}
					return detailMap(d), nil
				},
			},
		},
	})
	return pkggql.NewSchema(query)
}

func criteriaFrom(args map[string]interface{}) services.Criteria {
	str := func(k string) string { s, _ := args[k].(string); return s }
	num := func(k string) *float64 {
		if v, ok := args[k].(float64); ok {
			return &v
		}
		return nil
	}
	return services.Criteria{
		Search:    str("search"),
		Category:  str("category"),
		Condition: str("condition"),
		Type:      str("type"),
		MinPrice:  num("minPrice"),
		MaxPrice:  num("maxPrice"),
	}
}

func productMap(p *models.Product) map[string]interface{} {
	return map[string]interface{}{
		"id":          p.ID,
		"title":       p.Title,
		"description": p.Description,
		"price":       p.Price,
		"category":    p.Category,
		"type":        p.Type,
		"condition":   p.Condition,
		"imageUrl":    p.ImageURL,
		"createdAt":   p.CreatedAt.UTC().Format(time.RFC3339),
		"seller": map[string]interface{}{
			"id":     p.Seller.ID,
			"name":   p.Seller.Name,
			"avatar": p.Seller.Avatar,
		},
	}
}

func detailMap(d *services.ListingDetail) map[string]interface{} {
	m := productMap(&d.Product)
	reviews := make([]map[string]interface{}, 0, len(d.Reviews))
	for _, r := range d.Reviews {
		reviews = append(reviews, map[string]interface{}{
			"id":        r.ID,
			"user":      r.User,
			"avatar":    r.Avatar,
			"rating":    r.Rating,
			"comment":   r.Comment,
			"createdAt": r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	m["reviews"] = reviews
	m["reviewCount"] = d.ReviewCount
	m["averageRating"] = d.AverageRating
	return m
}
