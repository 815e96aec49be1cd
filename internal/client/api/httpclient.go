package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/edavydenko/mylist/internal/models"
)

// requestTimeout bounds every remote call. The upstream implementation
// set none, which let a hung request hold its task indefinitely.
const requestTimeout = 10 * time.Second

// HTTPClient talks to the myLIST API server.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[*http.Response]
}

// NewHTTPClient builds a client for the given base URL, e.g.
// "http://localhost:5000". The circuit breaker opens after a run of
// consecutive failures and recovers by itself after a cooldown, so an
// unreachable server costs one timeout, not one per call.
func NewHTTPClient(baseURL string) *HTTPClient {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    "mylist-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
		cb:      cb,
	}
}

// do executes a request through the breaker. Only transport errors and
// 5xx responses count as breaker failures; 4xx responses are valid
// answers from a healthy server.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.cb.Execute(func() (*http.Response, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			resp.Body.Close()
			return nil, fmt.Errorf("server error: %s", resp.Status)
		}
		return resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

// decode reads the response into out (when out is non-nil) and maps
// non-success statuses to the package sentinels.
func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return ErrConflict
	case resp.StatusCode >= http.StatusBadRequest:
		var e struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error != "" {
			return fmt.Errorf("%w: %s", ErrUnavailable, e.Error)
		}
		return fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type usernameRequest struct {
	Username string `json:"username"`
}

type checkUsernameResponse struct {
	Exists bool               `json:"exists"`
	User   *models.UserRecord `json:"user,omitempty"`
}

type userResponse struct {
	User *models.UserRecord `json:"user"`
}

type saveDataRequest struct {
	User *models.UserRecord `json:"user"`
}

func (c *HTTPClient) CheckUsername(ctx context.Context, username string) (*models.UserRecord, bool, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/check-username", usernameRequest{Username: username})
	if err != nil {
		return nil, false, err
	}

	var out checkUsernameResponse
	if err := decode(resp, &out); err != nil {
		return nil, false, err
	}
	return out.User, out.Exists, nil
}

func (c *HTTPClient) CreateUser(ctx context.Context, username string) (*models.UserRecord, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/create-user", usernameRequest{Username: username})
	if err != nil {
		return nil, err
	}

	var out userResponse
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *HTTPClient) SaveUserData(ctx context.Context, rec *models.UserRecord) (*models.UserRecord, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/user/save-data", saveDataRequest{User: rec})
	if err != nil {
		return nil, err
	}

	var out userResponse
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *HTTPClient) GetUserData(ctx context.Context, username string) (*models.UserRecord, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/user/"+username, nil)
	if err != nil {
		return nil, err
	}

	var out userResponse
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *HTTPClient) GetUserStats(ctx context.Context, username string) (*models.Stats, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/user/"+username+"/stats", nil)
	if err != nil {
		return nil, err
	}

	var out models.Stats
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

var _ Client = (*HTTPClient)(nil)
