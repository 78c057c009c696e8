// Package kernel assembles the HTTP handler: global middleware, the
// infrastructure endpoints and the API route table.
package kernel

import (
	"context"
	"net/http"
	"time"

	"github.com/shashiranjanraj/bazaar/app/routes"
	"github.com/shashiranjanraj/bazaar/config"
	"github.com/shashiranjanraj/bazaar/pkg/cache"
	"github.com/shashiranjanraj/bazaar/pkg/database"
	"github.com/shashiranjanraj/bazaar/pkg/metrics"
	"github.com/shashiranjanraj/bazaar/pkg/middleware"
	"github.com/shashiranjanraj/bazaar/pkg/reqid"
	"github.com/shashiranjanraj/bazaar/pkg/response"
	"github.com/shashiranjanraj/bazaar/pkg/router"
	"github.com/shashiranjanraj/bazaar/pkg/storage"
)

type Options struct {
	API routes.API

	// GraphQL serves POST /graphql when set.
	GraphQL http.Handler
}

type HTTPKernel struct {
	router *router.Router
}

func NewHTTPKernel(opts Options) *HTTPKernel {
	r := router.New()

	// Outermost first: metrics see total latency, the request ID exists
	// before anything logs, recovery runs inside the access log so panics
	// are logged with their 500.
	r.Use(
		metrics.Middleware(),
		reqid.Middleware(),
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(config.CORSOrigins()),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", "health", health)
	r.Get("/metrics", "metrics", metrics.Handler())
	if opts.GraphQL != nil {
		r.Post("/graphql", "graphql", opts.GraphQL.ServeHTTP)
	}
	if local, ok := storage.Local(); ok {
		r.Handle("/storage/*", "storage", http.StripPrefix("/storage", local.FileServer()))
	}

	routes.RegisterAPI(r, opts.API)

	return &HTTPKernel{router: r}
}

func (k *HTTPKernel) Handler() http.Handler { return k.router.Handler() }

// Router exposes the route table (route:list).
func (k *HTTPKernel) Router() *router.Router { return k.router }

// health reports the database and cache backends. A failed database ping
// answers 503.
func health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	db := "up"

	if database.DB == nil {
		db = "down"
		status = http.StatusServiceUnavailable
	} else if sqlDB, err := database.DB.DB(); err != nil {
		db = "down"
		status = http.StatusServiceUnavailable
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(ctx); err != nil {
			db = "down"
			status = http.StatusServiceUnavailable
		}
	}

	response.Write(w, status, response.Envelope{
		Status: status,
		Data: map[string]string{
			"database": db,
			"cache":    cache.Driver(),
			"env":      config.AppEnv(),
		},
	})
}
