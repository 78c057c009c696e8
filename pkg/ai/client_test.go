package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const photo = "data:image/png;base64,iVBORw0KGgo="

func newServer(t *testing.T, status int, content string) (*httptest.Server, *completionRequest) {
	t.Helper()
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func client(srv *httptest.Server) *Client {
	return New(Config{BaseURL: srv.URL + "/v1/", APIKey: "sk-test", Model: "gpt-4o-mini", HTTPClient: srv.Client()})
}

func TestGenerateListingDetails(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{"title":"Mid-century leather sofa","description":"A comfortable three-seat sofa in tan leather."}`)

	d, err := client(srv).GenerateListingDetails(context.Background(), photo, "Furniture")
	require.NoError(t, err)
	assert.Equal(t, "Mid-century leather sofa", d.Title)
	assert.Contains(t, d.Description, "three-seat")

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, "json_object", got.ResponseFormat["type"])
	require.Len(t, got.Messages, 2)
	parts, ok := got.Messages[1].Content.([]any)
	require.True(t, ok)
	require.Len(t, parts, 2)
	img := parts[1].(map[string]any)["image_url"].(map[string]any)
	assert.Equal(t, photo, img["url"])
}

func TestGenerateListingDetailsFencedReply(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, "```json\n{\"title\":\"Smartphone\",\"description\":\"Barely used, with charger.\"}\n```")

	d, err := client(srv).GenerateListingDetails(context.Background(), photo, "Electronics")
	require.NoError(t, err)
	assert.Equal(t, "Smartphone", d.Title)
}

func TestGenerateListingDetailsUpstreamErrors(t *testing.T) {
	srv, _ := newServer(t, http.StatusUnauthorized, "")
	_, err := client(srv).GenerateListingDetails(context.Background(), photo, "Electronics")
	assert.ErrorIs(t, err, ErrUpstream)

	srv, _ = newServer(t, http.StatusOK, "not json")
	_, err = client(srv).GenerateListingDetails(context.Background(), photo, "Electronics")
	assert.ErrorIs(t, err, ErrUpstream)

	srv, _ = newServer(t, http.StatusOK, `{"title":"","description":""}`)
	_, err = client(srv).GenerateListingDetails(context.Background(), photo, "Electronics")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestGenerateListingDetailsSingleAttempt(t *testing.T) {
	for _, status := range []int{http.StatusServiceUnavailable, http.StatusTooManyRequests} {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(status)
		}))

		_, err := client(srv).GenerateListingDetails(context.Background(), photo, "Vehicles")
		srv.Close()

		assert.ErrorIs(t, err, ErrUpstream)
		assert.Equal(t, int32(1), hits.Load(), "status %d", status)
	}
}

func TestNotConfigured(t *testing.T) {
	c := New(Config{BaseURL: "https://api.openai.com/v1"})
	assert.False(t, c.Configured())
	_, err := c.GenerateListingDetails(context.Background(), photo, "Electronics")
	assert.ErrorIs(t, err, ErrNotConfigured)

	var nilClient *Client
	assert.False(t, nilClient.Configured())
}
