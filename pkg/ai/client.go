// Package ai talks to an OpenAI-compatible chat-completions endpoint to
// draft listing titles and descriptions from a product photo.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	gohttp "net/http"
	"strings"
	"time"

	"github.com/shashiranjanraj/bazaar/pkg/http"
)

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("ai: endpoint is not configured")
	// ErrUpstream wraps every failure of the remote endpoint.
	ErrUpstream = errors.New("ai: upstream failure")
)

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	// HTTPClient overrides the shared client; tests set it.
	HTTPClient *gohttp.Client
}

// Details is the generated copy for a listing.
type Details struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Client struct {
	cfg Config
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg}
}

// Configured reports whether the client can make calls.
func (c *Client) Configured() bool {
	return c != nil && strings.TrimSpace(c.cfg.APIKey) != "" && c.cfg.BaseURL != ""
}

const systemPrompt = `You write product listings for an online marketplace.
Given a photo of the item and its category, reply with a JSON object
{"title": string, "description": string}.
The title is short and attractive (at most 80 characters).
The description is detailed: describe the item and highlight its key features and benefits.`

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type completionRequest struct {
	Model          string            `json:"model"`
	Messages       []message         `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateListingDetails asks the model for a title and description of the
// item in photoDataURI (a data:image/...;base64 URI).
func (c *Client) GenerateListingDetails(ctx context.Context, photoDataURI, category string) (Details, error) {
	if !c.Configured() {
		return Details{}, ErrNotConfigured
	}

	payload := completionRequest{
		Model:       c.cfg.Model,
		Temperature: 0.7,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: "Category: " + category},
				{Type: "image_url", ImageURL: &imageURL{URL: photoDataURI}},
			}},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	resp, err := http.Post(c.cfg.BaseURL+"/chat/completions").
		WithContext(ctx).
		Using(c.cfg.HTTPClient).
		Bearer(c.cfg.APIKey).
		Body(payload).
		Timeout(c.cfg.Timeout).
		Send()
	if err != nil {
		return Details{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if err := resp.Throw(); err != nil {
		return Details{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	var parsed completionResponse
	if err := resp.JSON(&parsed); err != nil {
		return Details{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(parsed.Choices) == 0 {
		return Details{}, fmt.Errorf("%w: no choices returned", ErrUpstream)
	}

	return parseDetails(parsed.Choices[0].Message.Content)
}

// parseDetails decodes the model's JSON reply, tolerating a ```json fence.
func parseDetails(content string) (Details, error) {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	var d Details
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &d); err != nil {
		return Details{}, fmt.Errorf("%w: decode details: %v", ErrUpstream, err)
	}
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	if d.Title == "" || d.Description == "" {
		return Details{}, fmt.Errorf("%w: empty title or description", ErrUpstream)
	}
	return d, nil
}
