package controllers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/shashiranjanraj/bazaar/app/services"
	"github.com/shashiranjanraj/bazaar/pkg/bind"
	"github.com/shashiranjanraj/bazaar/pkg/ctx"
)

type ListingController struct {
	catalog   *services.CatalogService
	listings  *services.ListingService
	ai        *services.ListingAIService
	maxUpload int64
}

func NewListingController(catalog *services.CatalogService, listings *services.ListingService, ai *services.ListingAIService, maxUpload int64) *ListingController {
	return &ListingController{catalog: catalog, listings: listings, ai: ai, maxUpload: maxUpload}
}

// Index handles GET /api/listings.
func (lc *ListingController) Index(c *ctx.Context) {
	criteria := services.Criteria{
		Search:    c.Query("search"),
		Category:  c.Query("category"),
		Condition: c.Query("condition"),
		Type:      c.Query("type"),
	}
	errs := map[string]string{}
	for key, dst := range map[string]**float64{"min_price": &criteria.MinPrice, "max_price": &criteria.MaxPrice} {
		v, ok, err := c.QueryFloat(key)
		if err != nil {
			errs[key] = "The " + key + " must be a number."
			continue
		}
		if ok {
			*dst = &v
		}
	}
	if len(errs) > 0 {
		c.ValidationError(errs)
		return
	}

	products, err := lc.catalog.Browse(c.Context(), criteria)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Success(products)
}

// Mine handles GET /api/listings/mine.
func (lc *ListingController) Mine(c *ctx.Context) {
	products, err := lc.listings.Mine(c.Context(), c.Identity())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Success(products)
}

// Store handles the multipart POST /api/listings.
func (lc *ListingController) Store(c *ctx.Context) {
	if !c.BindMultipart(lc.maxUpload) {
		return
	}

	in := services.ListingInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		Type:        c.PostForm("type"),
		Condition:   c.PostForm("condition"),
	}
	if raw := strings.TrimSpace(c.PostForm("price")); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			c.ValidationError(map[string]string{"price": "The price must be a number."})
			return
		}
		in.Price = price
	}

	var photo *services.Photo
	f, h, err := bind.File(c.R, "photo")
	switch {
	case err == nil:
		defer f.Close()
		photo = &services.Photo{Filename: h.Filename, Size: h.Size, Content: f}
	case !errors.Is(err, bind.ErrNoFile):
		c.Error(http.StatusBadRequest, err.Error())
		return
	}

	p, err := lc.listings.Create(c.Context(), c.Identity(), in, photo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Created(p)
}

// Generate handles POST /api/listings/generate-details.
func (lc *ListingController) Generate(c *ctx.Context) {
	var in services.GenerateInput
	if !c.BindJSON(&in) {
		return
	}
	d, err := lc.ai.Generate(c.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Success(d)
}

// Show handles GET /api/listings/{id}.
func (lc *ListingController) Show(c *ctx.Context) {
	d, err := lc.listings.Get(c.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Success(d)
}

// Update handles PUT /api/listings/{id}.
func (lc *ListingController) Update(c *ctx.Context) {
	var in services.ListingInput
	if !c.BindJSON(&in) {
		return
	}
	p, err := lc.listings.Update(c.Context(), c.Identity(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Success(p)
}

// Destroy handles DELETE /api/listings/{id}.
func (lc *ListingController) Destroy(c *ctx.Context) {
	if err := lc.listings.Delete(c.Context(), c.Identity(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Success(map[string]string{"message": "Listing deleted"})
}
