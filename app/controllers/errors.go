package controllers

import (
	"errors"
	"net/http"

	"github.com/shashiranjanraj/bazaar/app/services"
	"github.com/shashiranjanraj/bazaar/pkg/ctx"
)

// respondError writes the envelope for a service error. Unknown errors are
// logged and answered with a bare 500.
func respondError(c *ctx.Context, err error) {
	var verr services.ValidationError
	if errors.As(err, &verr) {
		c.ValidationError(verr)
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, services.ErrInvalidTransition):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, services.ErrUpstream):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		c.Logger().Error("request failed", "path", c.R.URL.Path, "error", err)
		c.Error(status, "Internal Server Error")
		return
	}

	var se *services.Error
	if errors.As(err, &se) {
		c.Error(status, se.Msg)
		return
	}
	c.Error(status, http.StatusText(status))
}
