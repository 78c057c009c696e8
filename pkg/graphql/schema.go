// Package graphql serves graphql-go schemas over HTTP.
package graphql

import (
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/response"
)

// NewSchema builds a read-only schema from its root query.
func NewSchema(query *graphql.Object) (graphql.Schema, error) {
	return graphql.NewSchema(graphql.SchemaConfig{
		Query: query,
	})
}

// Params is the body of a GraphQL POST.
type Params struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Handler executes POSTed queries against schema and writes the standard
// {"data": ..., "errors": [...]} result.
func Handler(schema graphql.Schema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p Params
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Query == "" {
			response.Error(w, http.StatusBadRequest, "request body must be {\"query\": ...}")
			return
		}

		res := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  p.Query,
			OperationName:  p.OperationName,
			VariableValues: p.Variables,
			Context:        r.Context(),
		})
		if res.HasErrors() {
			logger.WithCtx(r.Context()).Debug("graphql: query errors", "errors", len(res.Errors))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(res) //nolint:errcheck
	}
}
