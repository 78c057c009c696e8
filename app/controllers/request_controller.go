package controllers

import (
	"strings"
	"time"

	"github.com/shashiranjanraj/bazaar/app/services"
	"github.com/shashiranjanraj/bazaar/pkg/ctx"
)

type RequestController struct {
	requests *services.RequestService
}

func NewRequestController(requests *services.RequestService) *RequestController {
	return &RequestController{requests: requests}
}

// requestBody accepts dates as YYYY-MM-DD or RFC 3339.
type requestBody struct {
	Message   string `json:"message"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func parseDate(s string) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, true
		}
	}
	return nil, false
}

// Index handles GET /api/listings/{id}/requests.
func (rc *RequestController) Index(c *ctx.Context) {
	list, err := rc.requests.ListForProduct(c.Context(), c.Identity(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Success(list)
}

// Store handles POST /api/listings/{id}/requests.
func (rc *RequestController) Store(c *ctx.Context) {
	var body requestBody
	if !c.BindJSON(&body) {
		return
	}

	in := services.RequestInput{Message: body.Message}
	errs := map[string]string{}
	var ok bool
	if in.StartDate, ok = parseDate(body.StartDate); !ok {
		errs["start_date"] = "The start_date is not a valid date."
	}
	if in.EndDate, ok = parseDate(body.EndDate); !ok {
		errs["end_date"] = "The end_date is not a valid date."
	}
	if len(errs) > 0 {
		c.ValidationError(errs)
		return
	}

	r, err := rc.requests.Create(c.Context(), c.Identity(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Created(r)
}

// Incoming handles GET /api/requests/incoming.
func (rc *RequestController) Incoming(c *ctx.Context) {
	list, err := rc.requests.Incoming(c.Context(), c.Identity())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Success(list)
}

// Outgoing handles GET /api/requests/outgoing.
func (rc *RequestController) Outgoing(c *ctx.Context) {
	list, err := rc.requests.Outgoing(c.Context(), c.Identity())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Success(list)
}

// Update handles PATCH /api/requests/{id}.
func (rc *RequestController) Update(c *ctx.Context) {
	var in services.TransitionInput
	if !c.BindJSON(&in) {
		return
	}
	r, err := rc.requests.Transition(c.Context(), c.Identity(), c.Param("id"), in.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Success(r)
}
