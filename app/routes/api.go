// Package routes declares the marketplace HTTP API.
package routes

import (
	"time"

	"github.com/shashiranjanraj/bazaar/app/controllers"
	"github.com/shashiranjanraj/bazaar/pkg/auth"
	"github.com/shashiranjanraj/bazaar/pkg/ctx"
	"github.com/shashiranjanraj/bazaar/pkg/middleware"
	"github.com/shashiranjanraj/bazaar/pkg/router"
)

// API holds what the route table needs. Controllers may be nil when only the
// table itself is wanted (route:list).
type API struct {
	Verifier      auth.Verifier
	LocalAccounts bool
	AIRateLimit   int

	Auth     *controllers.AuthController
	Listings *controllers.ListingController
	Reviews  *controllers.ReviewController
	Requests *controllers.RequestController
}

func RegisterAPI(r *router.Router, a API) {
	var (
		ac  = a.Auth
		lc  = a.Listings
		rc  = a.Reviews
		qc  = a.Requests
		mw  = middleware.Authenticate(a.Verifier)
		opt = middleware.OptionalAuth(a.Verifier)
	)

	api := r.Group("/api")

	// Auth
	authGroup := api.Group("/auth")
	if a.LocalAccounts {
		authGroup.Post("/signup", "auth.signup", ctx.Wrap(ac.Signup))
		authGroup.Post("/login", "auth.login", ctx.Wrap(ac.Login))
	}
	authGroup.Post("/logout", "auth.logout", ctx.Wrap(ac.Logout), mw)
	authGroup.Get("/me", "auth.me", ctx.Wrap(ac.Me), mw)
	authGroup.Put("/me", "auth.profile", ctx.Wrap(ac.UpdateProfile), mw)

	// Listings
	listings := api.Group("/listings")
	listings.Get("", "listings.index", ctx.Wrap(lc.Index), opt)
	listings.Get("/mine", "listings.mine", ctx.Wrap(lc.Mine), mw)
	listings.Post("", "listings.store", ctx.Wrap(lc.Store), mw)
	listings.Post("/generate-details", "listings.generate", ctx.Wrap(lc.Generate),
		middleware.RateLimit(a.AIRateLimit, time.Minute), mw)
	listings.Get("/{id}", "listings.show", ctx.Wrap(lc.Show), opt)
	listings.Put("/{id}", "listings.update", ctx.Wrap(lc.Update), mw)
	listings.Delete("/{id}", "listings.destroy", ctx.Wrap(lc.Destroy), mw)

	// Reviews and requests hang off a listing
	listings.Get("/{id}/reviews", "reviews.index", ctx.Wrap(rc.Index), opt)
	listings.Post("/{id}/reviews", "reviews.store", ctx.Wrap(rc.Store), mw)
	listings.Get("/{id}/requests", "requests.index", ctx.Wrap(qc.Index), mw)
	listings.Post("/{id}/requests", "requests.store", ctx.Wrap(qc.Store), mw)

	requests := api.Group("/requests", mw)
	requests.Get("/incoming", "requests.incoming", ctx.Wrap(qc.Incoming))
	requests.Get("/outgoing", "requests.outgoing", ctx.Wrap(qc.Outgoing))
	requests.Patch("/{id}", "requests.update", ctx.Wrap(qc.Update))
}
