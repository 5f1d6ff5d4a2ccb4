// Package fetch retrieves the summary feed from the backend.
//
// The backend exposes a single read-only endpoint, GET <base>/api/summaries,
// returning {"summaries": [...]}. Every failure is reported as one of two
// sentinel errors so callers can treat them uniformly:
//
//   - ErrFetchFailed: transport error or non-success status
//   - ErrMalformedResponse: success status but the body lacks the list shape
//
// The client never retries. Retrying is a user decision.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/abelbrown/ytsummary/internal/logging"
	"github.com/abelbrown/ytsummary/internal/model"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// DefaultOrigin is used when no base URL is configured. The terminal client
// has no page origin, so "same origin" means the locally running API.
const DefaultOrigin = "http://localhost:8080"

// SummariesPath is the feed endpoint relative to the base URL.
const SummariesPath = "/api/summaries"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 10 << 20

var (
	// ErrFetchFailed covers network errors and non-success statuses.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrMalformedResponse covers bodies that do not decode to the feed shape.
	ErrMalformedResponse = errors.New("malformed response")
)

// Options configures a Client.
type Options struct {
	BaseURL     string        // empty means DefaultOrigin
	Limit       int           // sent as ?limit= when > 0
	Timeout     time.Duration // 0 disables the client-side timeout
	MinInterval time.Duration // minimum spacing between requests; 0 disables pacing
	UserAgent   string
}

// Client fetches the summary feed.
type Client struct {
	endpoint  string
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewClient validates opts and builds a Client.
func NewClient(opts Options) (*Client, error) {
	endpoint, err := BuildEndpoint(opts.BaseURL, opts.Limit)
	if err != nil {
		return nil, err
	}

	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = "ytsummary/0.1"
	}

	return &Client{
		endpoint:  endpoint,
		client:    &http.Client{Timeout: opts.Timeout},
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: ua,
	}, nil
}

// BuildEndpoint resolves the feed URL from a base URL and an optional limit.
// The base may carry a path prefix (e.g. an API gateway stage).
func BuildEndpoint(base string, limit int) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		base = DefaultOrigin
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid base URL %q: scheme must be http or https", base)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid base URL %q: missing host", base)
	}

	u = u.JoinPath(SummariesPath)
	if limit > 0 {
		q := u.Query()
		q.Set("limit", strconv.Itoa(limit))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Endpoint returns the resolved feed URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// feedEnvelope distinguishes a missing or null "summaries" key from an
// empty list.
type feedEnvelope struct {
	ChannelID string           `json:"channelId"`
	Summaries *[]model.Summary `json:"summaries"`
}

// Fetch performs exactly one GET against the feed endpoint.
//
// The request honours ctx cancellation, including while waiting on the
// pacing limiter.
func (c *Client) Fetch(ctx context.Context) (model.SummaryList, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return model.SummaryList{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return model.SummaryList{}, fmt.Errorf("%w: failed to create request: %w", ErrFetchFailed, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	logging.Debug("fetching summaries", "url", c.endpoint, "request_id", reqID)

	resp, err := c.client.Do(req)
	if err != nil {
		return model.SummaryList{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return model.SummaryList{}, fmt.Errorf("%w: HTTP %d %s", ErrFetchFailed, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var env feedEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&env); err != nil {
		if ctx.Err() != nil {
			return model.SummaryList{}, fmt.Errorf("%w: %w", ErrFetchFailed, ctx.Err())
		}
		return model.SummaryList{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if env.Summaries == nil {
		return model.SummaryList{}, fmt.Errorf("%w: missing summaries list", ErrMalformedResponse)
	}

	logging.Debug("fetched summaries",
		"request_id", reqID,
		"count", len(*env.Summaries),
		"elapsed", time.Since(start))

	return model.SummaryList{ChannelID: env.ChannelID, Summaries: *env.Summaries}, nil
}
