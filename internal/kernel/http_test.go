package kernel

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/pkg/database"
)

func serve(k *HTTPKernel, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	k.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealthReportsDatabase(t *testing.T) {
	saved := database.DB
	t.Cleanup(func() { database.DB = saved })

	k := NewHTTPKernel(Options{})

	database.DB = nil
	rec := serve(k, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"down"`)

	db, err := database.Open("sqlite", "file::memory:")
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	database.DB = db
	rec = serve(k, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"up"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestJSONFallbacks(t *testing.T) {
	k := NewHTTPKernel(Options{})

	rec := serve(k, http.MethodGet, "/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"status":404,"message":"Not found"}`, rec.Body.String())

	rec = serve(k, http.MethodDelete, "/health")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouteTable(t *testing.T) {
	k := NewHTTPKernel(Options{GraphQL: http.NotFoundHandler()})

	names := map[string]bool{}
	for _, r := range k.Router().Routes() {
		names[r.Name] = true
	}
	for _, want := range []string{"health", "metrics", "graphql", "listings.index", "listings.generate", "requests.update"} {
		assert.True(t, names[want], want)
	}
	assert.False(t, names["auth.signup"], "signup is only mounted for local accounts")
}

func TestMetricsEndpoint(t *testing.T) {
	k := NewHTTPKernel(Options{})
	serve(k, http.MethodGet, "/nowhere")

	rec := serve(k, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bazaar_http_requests_total")
}
