// Package metadata wraps the third-party title APIs the client enriches
// entries with: OMDB for title data and TMDB for watch providers. Both
// are opaque best-effort data sources; callers treat every failure as
// "no enrichment available".
package metadata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const omdbBaseURL = "https://www.omdbapi.com/"

// SearchResult is one row of an OMDB search response.
type SearchResult struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	ImdbID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

// Title is a full OMDB title record, the fields the lists care about.
type Title struct {
	Title    string `json:"Title"`
	Year     string `json:"Year"`
	Genre    string `json:"Genre"`
	Director string `json:"Director"`
	Actors   string `json:"Actors"`
	Plot     string `json:"Plot"`
	Poster   string `json:"Poster"`
	ImdbID   string `json:"imdbID"`
	Type     string `json:"Type"`
}

type omdbEnvelope struct {
	Response string         `json:"Response"`
	Error    string         `json:"Error"`
	Search   []SearchResult `json:"Search"`
}

// OMDBClient queries the OMDB API. Requests share a rate limiter so
// recommendation fan-outs stay inside the free-tier quota.
type OMDBClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewOMDBClient builds a client with a 10s timeout and a modest request
// rate (5 rps, burst 2).
func NewOMDBClient(apiKey string) *OMDBClient {
	return &OMDBClient{
		apiKey:  apiKey,
		baseURL: omdbBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(5, 2),
	}
}

// WithBaseURL points the client at a different endpoint, for tests.
func (c *OMDBClient) WithBaseURL(u string) *OMDBClient {
	c.baseURL = u
	return c
}

func (c *OMDBClient) get(ctx context.Context, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	params.Set("apikey", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("omdb request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("omdb request failed: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Search runs a title search. mediaType narrows results to "movie" or
// "series" when non-empty. A "not found" answer from OMDB is an empty
// slice, not an error.
func (c *OMDBClient) Search(ctx context.Context, query, mediaType string) ([]SearchResult, error) {
	params := url.Values{"s": {query}}
	if mediaType != "" {
		params.Set("type", mediaType)
	}

	var env omdbEnvelope
	if err := c.get(ctx, params, &env); err != nil {
		return nil, err
	}
	if env.Response != "True" {
		return nil, nil
	}
	return env.Search, nil
}

// ByID fetches the full record for an IMDB id.
func (c *OMDBClient) ByID(ctx context.Context, imdbID string) (*Title, error) {
	var t struct {
		Title
		Response string `json:"Response"`
		Error    string `json:"Error"`
	}
	if err := c.get(ctx, url.Values{"i": {imdbID}}, &t); err != nil {
		return nil, err
	}
	if t.Response != "True" {
		return nil, fmt.Errorf("omdb: %s", t.Error)
	}
	return &t.Title, nil
}
