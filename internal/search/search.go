// Package search queries the SerpAPI Google engine and condenses organic results into a text summary.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultEndpoint is the SerpAPI search URL.
const DefaultEndpoint = "https://serpapi.com/search"

// DefaultEngine is the SerpAPI engine parameter.
const DefaultEngine = "google"

// QuerySuffix is appended to every company name to form the search query.
const QuerySuffix = " company description"

// OrganicResult is a single non-sponsored search result.
type OrganicResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link,omitempty"`
}

// Response is the decoded SerpAPI response.
type Response struct {
	OrganicResults []OrganicResult `json:"organic_results"`
	// Raw is the full JSON body as returned by the API.
	Raw json.RawMessage `json:"-"`
}

// Searcher runs a web search for a query.
type Searcher interface {
	Search(ctx context.Context, query string) (*Response, error)
}

// Error represents a failed search request.
type Error struct {
	Query      string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("search error for %q: %s: %v", e.Query, e.Message, e.Cause)
	}
	return fmt.Sprintf("search error for %q: %s", e.Query, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures a Client.
type Options struct {
	Endpoint string
	Engine   string
	// Timeout bounds each request; zero means no client-side timeout.
	Timeout time.Duration
	Verbose bool
}

// Client calls the SerpAPI search endpoint.
type Client struct {
	apiKey     string
	endpoint   string
	engine     string
	httpClient *http.Client
	verbose    bool
}

// NewClient creates a SerpAPI client. Empty option fields fall back to the defaults.
func NewClient(apiKey string, opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Engine == "" {
		opts.Engine = DefaultEngine
	}
	return &Client{
		apiKey:     apiKey,
		endpoint:   opts.Endpoint,
		engine:     opts.Engine,
		httpClient: &http.Client{Timeout: opts.Timeout},
		verbose:    opts.Verbose,
	}
}

// Query builds the search query for a company name.
func Query(name string) string {
	return name + QuerySuffix
}

// Search issues a single GET request. There is no retry; transport failures,
// non-2xx statuses and undecodable bodies are returned as *Error.
func (c *Client) Search(ctx context.Context, query string) (*Response, error) {
	params := url.Values{}
	params.Set("engine", c.engine)
	params.Set("q", query)
	params.Set("api_key", c.apiKey)

	reqURL := c.endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &Error{Query: query, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	if c.verbose {
		log.Printf("[SEARCH] GET %s q=%q", c.endpoint, query)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Query: query, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Query: query, Message: "failed to read response body", StatusCode: resp.StatusCode, Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Query:      query,
			Message:    fmt.Sprintf("HTTP status %d: %s", resp.StatusCode, apiErrorMessage(body)),
			StatusCode: resp.StatusCode,
		}
	}

	result, err := Decode(body)
	if err != nil {
		return nil, &Error{Query: query, Message: "failed to decode response", StatusCode: resp.StatusCode, Cause: err}
	}

	if c.verbose {
		log.Printf("[SEARCH] %d organic results for q=%q", len(result.OrganicResults), query)
	}

	return result, nil
}

// Decode parses a SerpAPI JSON body. A missing organic_results field yields an empty list.
func Decode(body []byte) (*Response, error) {
	var result Response
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	if result.OrganicResults == nil {
		result.OrganicResults = []OrganicResult{}
	}
	result.Raw = append(json.RawMessage(nil), body...)
	return &result, nil
}

// Summarize renders results as "title: snippet" lines joined by newlines.
func Summarize(results []OrganicResult) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, r.Title+": "+r.Snippet)
	}
	return strings.Join(lines, "\n")
}

func apiErrorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}
