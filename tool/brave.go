package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/tmc/langchaingo/tools"
)

const (
	braveEndpoint = "https://api.search.brave.com/res/v1/web/search"
	maxBraveCount = 20
)

// ErrRateLimited is returned when the search API answers 429.
var ErrRateLimited = errors.New("search rate limit reached (429)")

// SearchResult is one web result with markup stripped from its text.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// BraveSearch queries the Brave Search web endpoint.
type BraveSearch struct {
	apiKey   string
	endpoint string
	count    int
	country  string
	lang     string
	client   *http.Client
	strip    *bluemonday.Policy
}

var _ tools.Tool = (*BraveSearch)(nil)

type BraveOption func(*BraveSearch)

// WithBraveBaseURL points the tool at another endpoint.
func WithBraveBaseURL(endpoint string) BraveOption {
	return func(b *BraveSearch) {
		b.endpoint = endpoint
	}
}

// WithBraveCount sets how many results are requested, clamped to 1..20.
func WithBraveCount(count int) BraveOption {
	return func(b *BraveSearch) {
		b.count = min(max(count, 1), maxBraveCount)
	}
}

// WithBraveCountry sets the result country, e.g. "US".
func WithBraveCountry(country string) BraveOption {
	return func(b *BraveSearch) {
		b.country = country
	}
}

// WithBraveLang sets the search language, e.g. "en".
func WithBraveLang(lang string) BraveOption {
	return func(b *BraveSearch) {
		b.lang = lang
	}
}

// WithBraveHTTPClient sets the HTTP client used for requests. A nil client
// keeps http.DefaultClient.
func WithBraveHTTPClient(c *http.Client) BraveOption {
	return func(b *BraveSearch) {
		if c != nil {
			b.client = c
		}
	}
}

// NewBraveSearch creates the tool. An empty apiKey falls back to the
// BRAVE_API_KEY environment variable.
func NewBraveSearch(apiKey string, opts ...BraveOption) (*BraveSearch, error) {
	if apiKey == "" {
		apiKey = os.Getenv("BRAVE_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("BRAVE_API_KEY not set")
	}

	b := &BraveSearch{
		apiKey:   apiKey,
		endpoint: braveEndpoint,
		count:    10,
		country:  "US",
		lang:     "en",
		client:   http.DefaultClient,
		strip:    bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *BraveSearch) Name() string {
	return "Brave_Search"
}

func (b *BraveSearch) Description() string {
	return "Searches the web for current information on a research question. " +
		"Input should be a search query."
}

type braveResponse struct {
	Web struct {
		Results []SearchResult `json:"results"`
	} `json:"web"`
}

// Search runs query and returns the web results in rank order. Results
// without a URL are dropped, and a URL is reported once.
func (b *BraveSearch) Search(ctx context.Context, query string) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(b.count))
	if b.country != "" {
		params.Set("country", b.country)
	}
	if b.lang != "" {
		params.Set("search_lang", b.lang)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("brave api returned status: %d", resp.StatusCode)
	}

	var body braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	seen := make(map[string]bool, len(body.Web.Results))
	results := make([]SearchResult, 0, len(body.Web.Results))
	for _, r := range body.Web.Results {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		results = append(results, SearchResult{
			Title:       b.plain(r.Title),
			URL:         r.URL,
			Description: b.plain(r.Description),
		})
	}
	return results, nil
}

// plain removes highlight markup such as <strong> and decodes entities.
func (b *BraveSearch) plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(b.strip.Sanitize(s)))
}

// Call runs the search and formats the results as a numbered list, one
// "[n] title (url)" header per result followed by its description.
func (b *BraveSearch) Call(ctx context.Context, input string) (string, error) {
	results, err := b.Search(ctx, input)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "No results found", nil
	}

	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "[%d] %s (%s)\n", i+1, r.Title, r.URL)
		if r.Description != "" {
			fmt.Fprintf(&sb, "    %s\n", r.Description)
		}
	}
	return sb.String(), nil
}
