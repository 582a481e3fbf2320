// Package peopledata provides a client for the external profile source's
// person search and lookup API.
package peopledata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/enrich-cli/internal/enrich"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/resilience"
)

// Client defines the profile source operations.
type Client interface {
	// Candidates searches for person profiles matching the query, ranked by
	// match score.
	Candidates(ctx context.Context, q enrich.MatchQuery) ([]model.EPSProfile, error)
	// Profile fetches a single profile by its source ID.
	Profile(ctx context.Context, id string) (*model.EPSProfile, error)
}

var _ enrich.MatchProvider = (Client)(nil)

// searchResponse is the parsed person search response.
type searchResponse struct {
	Data []model.EPSProfile `json:"data"`
}

// profileResponse is the parsed single-profile response.
type profileResponse struct {
	Data model.EPSProfile `json:"data"`
}

// Option configures the peopledata client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(perSecond float64) Option {
	return func(c *httpClient) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithMaxCandidates sets how many search results to request per query.
func WithMaxCandidates(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.maxCandidates = n
		}
	}
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(c *httpClient) {
		c.retry = p
	}
}

type httpClient struct {
	apiKey        string
	baseURL       string
	maxCandidates int
	limiter       *rate.Limiter
	retry         resilience.Policy
	http          *http.Client
}

// NewClient creates a new profile source client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:        apiKey,
		baseURL:       "https://api.peopledatasource.com/v1",
		maxCandidates: 10,
		limiter:       rate.NewLimiter(rate.Limit(5), 1),
		retry:         resilience.DefaultPolicy(),
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchRequest struct {
	FullName    string `json:"full_name,omitempty"`
	Email       string `json:"email,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Size        int    `json:"size"`
}

func (c *httpClient) Candidates(ctx context.Context, q enrich.MatchQuery) ([]model.EPSProfile, error) {
	payload, err := json.Marshal(searchRequest{
		FullName:    q.FullName,
		Email:       q.Email,
		CompanyName: q.CompanyName,
		Size:        c.maxCandidates,
	})
	if err != nil {
		return nil, eris.Wrap(err, "peopledata: marshal search request")
	}

	body, err := c.do(ctx, http.MethodPost, c.baseURL+"/person/search", payload)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "peopledata: parse search response")
	}
	return resp.Data, nil
}

func (c *httpClient) Profile(ctx context.Context, id string) (*model.EPSProfile, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/person/%s", c.baseURL, id), nil)
	if err != nil {
		return nil, err
	}

	var resp profileResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "peopledata: parse profile response")
	}
	if resp.Data.ID == "" {
		return nil, eris.Errorf("peopledata: profile %s missing id", id)
	}
	return &resp.Data, nil
}

// do issues one rate-limited request, retrying transient failures per the
// client's retry policy. Non-2xx statuses other than 404 surface as errors;
// retryable statuses are wrapped as transient so the policy retries them.
func (c *httpClient) do(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	var body []byte

	err := resilience.Do(ctx, c.retry, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return eris.Wrap(err, "peopledata: create request")
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return resilience.NewTransientError(err, 0)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return eris.Wrap(err, "peopledata: read response body")
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return eris.Errorf("peopledata: not found: %s", url)
		case resilience.IsTransientHTTPStatus(resp.StatusCode):
			return resilience.NewTransientError(
				eris.Errorf("peopledata: status %d: %s", resp.StatusCode, string(data)),
				resp.StatusCode,
			)
		case resp.StatusCode != http.StatusOK:
			return eris.Errorf("peopledata: unexpected status %d: %s", resp.StatusCode, string(data))
		}

		body = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
