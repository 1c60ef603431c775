package websearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTavilyURL is the Tavily API endpoint.
const DefaultTavilyURL = "https://api.tavily.com"

// ErrMissingAPIKey is returned when no Tavily key is configured.
var ErrMissingAPIKey = errors.New("TAVILY_API_KEY is not set")

// Request is a backend-neutral web search request.
type Request struct {
	Query         string
	MaxResults    int
	Depth         string
	IncludeAnswer bool
}

// Hit is a raw search hit as reported by the backend.
type Hit struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Response is the raw backend response.
type Response struct {
	Answer  string `json:"answer"`
	Results []Hit  `json:"results"`
}

// Searcher performs web searches.
type Searcher interface {
	Search(ctx context.Context, req Request) (*Response, error)
}

// Tavily implements Searcher against the Tavily search API.
type Tavily struct {
	client *resty.Client
}

// TavilyOption configures a Tavily client.
type TavilyOption func(*resty.Client)

// WithBaseURL points the client at another endpoint.
func WithBaseURL(url string) TavilyOption {
	return func(c *resty.Client) { c.SetBaseURL(url) }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) TavilyOption {
	return func(c *resty.Client) {
		if d > 0 {
			c.SetTimeout(d)
		}
	}
}

// NewTavily creates a Tavily client. It fails with ErrMissingAPIKey when
// apiKey is empty.
func NewTavily(apiKey string, opts ...TavilyOption) (*Tavily, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	client := resty.New().
		SetBaseURL(DefaultTavilyURL).
		SetTimeout(15*time.Second).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	for _, opt := range opts {
		opt(client)
	}
	return &Tavily{client: client}, nil
}

type tavilyRequest struct {
	Query             string `json:"query"`
	SearchDepth       string `json:"search_depth,omitempty"`
	MaxResults        int    `json:"max_results,omitempty"`
	IncludeAnswer     bool   `json:"include_answer"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

type tavilyError struct {
	Detail any `json:"detail"`
}

func (t *Tavily) Search(ctx context.Context, req Request) (*Response, error) {
	var out Response
	var apiErr tavilyError
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(tavilyRequest{
			Query:         req.Query,
			SearchDepth:   req.Depth,
			MaxResults:    req.MaxResults,
			IncludeAnswer: req.IncludeAnswer,
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/search")
	if err != nil {
		return nil, fmt.Errorf("tavily request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("tavily returned status %d: %v", resp.StatusCode(), apiErr.Detail)
	}
	return &out, nil
}
