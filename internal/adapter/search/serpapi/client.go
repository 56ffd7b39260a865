// Package serpapi implements the web-search port against a SerpAPI-style
// endpoint.
package serpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/prediction-validator/internal/config"
	"github.com/fairyhunter13/prediction-validator/internal/domain"
)

// maxResultsPerCall is the provider-side cap on the num parameter.
const maxResultsPerCall = 10

// Client implements domain.SearchClient.
type Client struct {
	baseURL string
	apiKey  string
	hc      *http.Client
}

// New constructs a Client from config with an instrumented HTTP transport.
func New(cfg config.Config) *Client {
	return &Client{
		baseURL: cfg.SerpAPIBaseURL,
		apiKey:  cfg.SerpAPIKey,
		hc: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type organicResult struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Date    string `json:"date"`
}

type searchResponse struct {
	OrganicResults []organicResult `json:"organic_results"`
}

// Search runs one query and returns up to num organic results in provider
// order. An absent organic_results field maps to an empty slice.
func (c *Client) Search(ctx domain.Context, query string, num int) ([]domain.SearchResult, error) {
	if num <= 0 || num > maxResultsPerCall {
		num = maxResultsPerCall
	}
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("num", strconv.Itoa(num))
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("op=search.request: %w", err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("op=search.query: %w", domain.ErrUpstreamTimeout)
		}
		return nil, fmt.Errorf("op=search.query: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("op=search.query: %w", domain.ErrUpstreamRateLimit)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("op=search.query: status %d: %w", resp.StatusCode, domain.ErrInternal)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("op=search.decode: %w", err)
	}
	out := make([]domain.SearchResult, 0, len(parsed.OrganicResults))
	for _, r := range parsed.OrganicResults {
		out = append(out, domain.SearchResult{
			URL:     r.Link,
			Title:   r.Title,
			Excerpt: r.Snippet,
			PubDate: r.Date,
		})
	}
	return out, nil
}
