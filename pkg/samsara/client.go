package samsara

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/fleetops/rostersync/pkg/errors"
	"github.com/fleetops/rostersync/pkg/logging"
)

const (
	// DefaultBaseURL is the production API endpoint.
	DefaultBaseURL = "https://api.samsara.com"

	// EnvAPIToken names the environment variable holding the bearer token.
	EnvAPIToken = "SAMSARA_API_TOKEN"

	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 5
	defaultBackoffBase = 500 * time.Millisecond
	defaultBackoffCap  = 15 * time.Second
	defaultPageLimit   = 512
)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, used by tests and sandboxes.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithMaxAttempts bounds retries per request, including the first attempt.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithMinInterval spaces requests at least d apart, smoothing bursts under
// the remote rate limit.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithPageLimit sets the page size for list endpoints.
func WithPageLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageLimit = n
		}
	}
}

// Client talks to the Samsara REST API.
type Client struct {
	baseURL     string
	token       string
	http        *http.Client
	maxAttempts int
	backoffBase time.Duration
	backoffCap  time.Duration
	limiter     *rate.Limiter
	pageLimit   int

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a client with the given bearer token.
func New(token string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.ErrAPITokenRequired
	}
	c := &Client{
		baseURL:     DefaultBaseURL,
		token:       token,
		http:        &http.Client{Timeout: defaultTimeout},
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
		backoffCap:  defaultBackoffCap,
		pageLimit:   defaultPageLimit,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewFromEnv builds a client from the SAMSARA_API_TOKEN environment variable.
func NewFromEnv(opts ...Option) (*Client, error) {
	return New(os.Getenv(EnvAPIToken), opts...)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// envelope is the common list/get response wrapper.
type envelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination struct {
		EndCursor   string `json:"endCursor"`
		HasNextPage bool   `json:"hasNextPage"`
	} `json:"pagination"`
}

// do issues one request with bounded retries. 429 and 5xx responses and
// transport errors are retried with exponential backoff, jitter, and
// Retry-After when the server supplies one. Other failures return
// immediately as typed errors.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*envelope, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = errors.WrapAPI(method+" "+path, 0, err)
			logging.Warn().Err(err).Str("method", method).Str("path", path).
				Int("attempt", attempt).Msg("request failed, retrying")
			if err := c.backoff(ctx, attempt, 0); err != nil {
				return nil, err
			}
			continue
		}

		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
		resp.Body.Close()
		if readErr != nil {
			lastErr = errors.WrapAPI(method+" "+path, resp.StatusCode, readErr)
			if err := c.backoff(ctx, attempt, 0); err != nil {
				return nil, err
			}
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			var env envelope
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &env); err != nil {
					// Some write endpoints return the bare object.
					env.Data = json.RawMessage(raw)
				}
			}
			return &env, nil

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = &errors.APIError{
				StatusCode: resp.StatusCode,
				Endpoint:   method + " " + path,
				Message:    apiMessage(raw),
			}
			retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
			logging.Warn().Int("status", resp.StatusCode).
				Str("method", method).Str("path", path).
				Int("attempt", attempt).Dur("retry_after", retryAfter).
				Msg("retryable response")
			if err := c.backoff(ctx, attempt, retryAfter); err != nil {
				return nil, err
			}
			continue

		default:
			if conflict := conflictError(resp.StatusCode, method+" "+path, raw); conflict != nil {
				return nil, conflict
			}
			return nil, &errors.APIError{
				StatusCode: resp.StatusCode,
				Endpoint:   method + " " + path,
				Message:    apiMessage(raw),
			}
		}
	}
	return nil, fmt.Errorf("%s %s: retries exhausted after %d attempts: %w",
		method, path, c.maxAttempts, lastErr)
}

// backoff waits before the next attempt. The server's Retry-After wins when
// it exceeds the computed exponential delay.
func (c *Client) backoff(ctx context.Context, attempt int, retryAfter time.Duration) error {
	if attempt >= c.maxAttempts {
		return nil
	}
	d := c.backoffBase << (attempt - 1)
	if d > c.backoffCap {
		d = c.backoffCap
	}
	d += time.Duration(rand.Int63n(int64(c.backoffBase)))
	if retryAfter > d {
		d = retryAfter
	}
	return c.sleep(ctx, d)
}

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// apiMessage extracts the human-readable message from an error body.
func apiMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return body.Message
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 300 {
		s = s[:300]
	}
	return s
}

// conflictError maps external-id rejection responses to typed conflicts.
// Duplicate-value and invalid-key failures get distinct kinds so the planner
// can record them as specific failure reasons instead of generic API errors.
func conflictError(status int, endpoint string, raw []byte) *errors.ConflictError {
	if status != http.StatusBadRequest && status != http.StatusConflict {
		return nil
	}
	msg := apiMessage(raw)
	lower := strings.ToLower(msg)
	if !strings.Contains(lower, "external id") && !strings.Contains(lower, "externalid") {
		return nil
	}
	kind := errors.ConflictDuplicateValue
	if strings.Contains(lower, "invalid") && !strings.Contains(lower, "in use") &&
		!strings.Contains(lower, "duplicate") && !strings.Contains(lower, "already") {
		kind = errors.ConflictInvalidKey
	}
	key, value := parseConflictPair(msg)
	return &errors.ConflictError{
		Kind:  kind,
		Key:   key,
		Value: value,
		Err: &errors.APIError{
			StatusCode: status,
			Endpoint:   endpoint,
			Message:    msg,
		},
	}
}

// parseConflictPair pulls a key[:=]value pair out of a conflict message when
// the server includes one, e.g. "external ID encompassid:1234 is already in
// use". Absent pairs leave both fields empty.
func parseConflictPair(msg string) (key, value string) {
	for _, tok := range strings.Fields(msg) {
		tok = strings.Trim(tok, `"'.,()`)
		for _, sep := range []string{":", "="} {
			if k, v, ok := strings.Cut(tok, sep); ok && k != "" && v != "" &&
				!strings.Contains(v, "/") {
				return k, v
			}
		}
	}
	return "", ""
}

// get issues a GET and decodes the data field into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	env, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return errors.WrapParse("json", path, err)
		}
	}
	return nil
}

// write issues a mutating request and decodes the returned object into out.
func (c *Client) write(ctx context.Context, method, path string, body, out any) error {
	env, err := c.do(ctx, method, path, nil, body)
	if err != nil {
		return err
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return errors.WrapParse("json", path, err)
		}
	}
	return nil
}

// listPages walks a cursor-paginated collection, invoking page with each raw
// data payload until the server reports no further pages.
func (c *Client) listPages(ctx context.Context, path string, query url.Values, page func(json.RawMessage) error) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("limit", strconv.Itoa(c.pageLimit))
	for {
		env, err := c.do(ctx, http.MethodGet, path, query, nil)
		if err != nil {
			return err
		}
		if len(env.Data) > 0 {
			if err := page(env.Data); err != nil {
				return err
			}
		}
		if !env.Pagination.HasNextPage || env.Pagination.EndCursor == "" {
			return nil
		}
		query.Set("after", env.Pagination.EndCursor)
	}
}
