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

const tmdbBaseURL = "https://api.themoviedb.org/3"

// TMDBClient resolves IMDB ids to TMDB ids and looks up watch providers.
type TMDBClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

func NewTMDBClient(apiKey string) *TMDBClient {
	return &TMDBClient{
		apiKey:  apiKey,
		baseURL: tmdbBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(5, 2),
	}
}

// WithBaseURL points the client at a different endpoint, for tests.
func (c *TMDBClient) WithBaseURL(u string) *TMDBClient {
	c.baseURL = u
	return c
}

func (c *TMDBClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb request failed: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// FindMatch is one external-id match from TMDB.
type FindMatch struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Name  string `json:"name"`
}

type findResponse struct {
	MovieResults []FindMatch `json:"movie_results"`
	TVResults    []FindMatch `json:"tv_results"`
}

// FindByImdb resolves an IMDB id to a TMDB id. The second return value
// is "movie" or "tv" depending on where the match landed; ok is false
// when TMDB knows nothing about the id.
func (c *TMDBClient) FindByImdb(ctx context.Context, imdbID string) (FindMatch, string, bool, error) {
	var out findResponse
	err := c.get(ctx, "/find/"+imdbID, url.Values{"external_source": {"imdb_id"}}, &out)
	if err != nil {
		return FindMatch{}, "", false, err
	}
	if len(out.MovieResults) > 0 {
		return out.MovieResults[0], "movie", true, nil
	}
	if len(out.TVResults) > 0 {
		return out.TVResults[0], "tv", true, nil
	}
	return FindMatch{}, "", false, nil
}

// ProviderOption is one provider offering in a region.
type ProviderOption struct {
	ProviderName string `json:"provider_name"`
}

// RegionProviders groups offerings by kind for one country.
type RegionProviders struct {
	Flatrate []ProviderOption `json:"flatrate"`
	Rent     []ProviderOption `json:"rent"`
	Buy      []ProviderOption `json:"buy"`
}

type providersResponse struct {
	Results map[string]RegionProviders `json:"results"`
}

// WatchProviders returns per-region watch options for a TMDB title.
// mediaType is "movie" or "tv".
func (c *TMDBClient) WatchProviders(ctx context.Context, mediaType string, tmdbID int64) (map[string]RegionProviders, error) {
	var out providersResponse
	path := fmt.Sprintf("/%s/%d/watch/providers", mediaType, tmdbID)
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}
