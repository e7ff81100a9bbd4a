package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/matzehuels/typescout/pkg/buildinfo"
	"github.com/matzehuels/typescout/pkg/cache"
	tserrors "github.com/matzehuels/typescout/pkg/errors"
	"github.com/matzehuels/typescout/pkg/observability"
)

// Client provides shared HTTP functionality for registry API clients.
// It handles caching, retry logic, and common request headers.
// A Client is safe for concurrent use.
type Client struct {
	http       *http.Client
	cache      cache.Cache
	keyer      cache.Keyer
	namespace  string
	ttl        time.Duration
	headers    map[string]string
	attempts   int
	retryDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithHeaders sets headers applied to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) { c.headers = headers }
}

// WithKeyer sets the cache keyer.
func WithKeyer(k cache.Keyer) Option {
	return func(c *Client) { c.keyer = k }
}

// WithRetry sets the number of attempts and the initial backoff delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.retryDelay = delay
	}
}

// NewClient creates a Client that caches successful responses in c under
// namespace for ttl. A nil cache disables caching.
func NewClient(c cache.Cache, namespace string, ttl time.Duration, opts ...Option) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	cl := &Client{
		http:       NewHTTPClient(),
		cache:      c,
		keyer:      cache.NewDefaultKeyer(),
		namespace:  namespace,
		ttl:        ttl,
		attempts:   3,
		retryDelay: time.Second,
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

// Cached retrieves a value from cache or executes fetch and caches the result.
// If refresh is true, the cache is bypassed and fetch is always called.
// The fetch function should populate v; on success, v is stored in the cache.
// Failures are never cached.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	k := c.keyer.HTTPKey(c.namespace, key)
	if !refresh {
		if data, ok, err := c.cache.Get(ctx, k); err == nil && ok && json.Unmarshal(data, v) == nil {
			observability.Cache().OnCacheHit(ctx, c.namespace)
			return nil
		}
		observability.Cache().OnCacheMiss(ctx, c.namespace)
	}
	if err := cache.Retry(ctx, c.attempts, c.retryDelay, fetch); err != nil {
		return err
	}
	if data, err := json.Marshal(v); err == nil {
		if c.cache.Set(ctx, k, data, c.ttl) == nil {
			observability.Cache().OnCacheSet(ctx, c.namespace, len(data))
		}
	}
	return nil
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
func (c *Client) Get(ctx context.Context, rawURL string, v any) error {
	return c.GetWithHeaders(ctx, rawURL, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, rawURL string, headers map[string]string, v any) error {
	body, err := c.doRequest(ctx, rawURL, headers)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, rawURL string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	host, path := splitURL(rawURL)
	observability.HTTP().OnRequest(ctx, http.MethodGet, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodGet, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	observability.HTTP().OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return cache.ErrNotFound
	case code == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return cache.Retryable(fmt.Errorf("%w: %w", cache.ErrNetwork, &tserrors.RateLimitedError{RetryAfter: retryAfter}))
	case code >= 500:
		return cache.Retryable(fmt.Errorf("%w: status %d", cache.ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", cache.ErrNetwork, code)
	}
}

func splitURL(rawURL string) (host, path string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", rawURL
	}
	return u.Host, u.EscapedPath()
}
