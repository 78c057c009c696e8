package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows browser clients on origins to call the API. A single "*"
// allows any origin without credentials.
func CORS(origins []string) func(http.Handler) http.Handler {
	wildcard := len(origins) == 1 && origins[0] == "*"
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	})
	return c.Handler
}
