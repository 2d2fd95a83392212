// Package toolclient calls the discovery HTTP API on behalf of chat tools and
// renders its JSON replies as markdown text.
package toolclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	DefaultBaseURL    = "http://localhost:8000/api/v1"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
)

// StatusError is returned when the API answers with anything but 200.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("API returned status %d", e.Code) }

type Client struct {
	BaseURL    string
	MaxRetries uint
	HTTP       *http.Client
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.HTTP.Timeout = d }
}

func WithMaxRetries(n uint) Option {
	return func(c *Client) {
		if n > 0 {
			c.MaxRetries = n
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTP = hc }
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		MaxRetries: DefaultMaxRetries,
		HTTP:       &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// do sends one request, retrying up to MaxRetries attempts with no delay.
// Only the last attempt's error is returned.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		payload = b
	}
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	attempts := c.MaxRetries
	if attempts == 0 {
		attempts = 1
	}

	var out []byte
	err := retry.Do(
		func() error {
			var rdr io.Reader
			if payload != nil {
				rdr = bytes.NewReader(payload)
			}
			req, err := http.NewRequestWithContext(ctx, method, u, rdr)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			if payload != nil {
				req.Header.Set("Content-Type", "application/json")
			}
			req.Header.Set("Accept", "application/json")

			resp, err := c.HTTP.Do(req)
			if err != nil {
				return fmt.Errorf("connection failed: %w", err)
			}
			defer resp.Body.Close()

			b, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("connection failed: %w", err)
			}
			if resp.StatusCode != http.StatusOK {
				return &StatusError{Code: resp.StatusCode}
			}
			out = b
			return nil
		},
		retry.Attempts(attempts),
		retry.Delay(0),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SearchTables runs a query. k is clamped to 1..20 and a missing session id
// is replaced with a fresh one so follow-ups can be tracked.
func (c *Client) SearchTables(ctx context.Context, query string, k int, sessionID string) ([]byte, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	k = max(1, min(20, k))
	return c.do(ctx, http.MethodPost, "/query", nil, map[string]any{
		"query":      query,
		"k":          k,
		"session_id": sessionID,
	})
}

func (c *Client) TableDetails(ctx context.Context, tableID string, includeSample bool) ([]byte, error) {
	q := url.Values{}
	q.Set("include_sample_data", strconv.FormatBool(includeSample))
	return c.do(ctx, http.MethodGet, "/table/"+url.PathEscape(tableID), q, nil)
}

func (c *Client) SessionHistory(ctx context.Context, sessionID string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/query/session/"+url.PathEscape(sessionID), nil, nil)
}

func (c *Client) Indexes(ctx context.Context) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/indexes", nil, nil)
}
