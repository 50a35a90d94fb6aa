// Package fetch implements the resilient HTTP fetch client: cache-first reads,
// bounded retry with exponential backoff and stale-on-error fallback.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/egecelikci/favorites/internal/cache"
	"github.com/egecelikci/favorites/internal/shared"
	"golang.org/x/time/rate"
)

const (
	DefaultRetries    = 3
	DefaultRetryDelay = time.Second
)

// Options configures a [Client].
type Options struct {
	HTTPClient *http.Client
	Store      *cache.Store
	Logger     *log.Logger
	UserAgent  string
	Limiter    *rate.Limiter // Optional pacing applied before every network attempt
	Retries    int           // Attempts per fetch, defaults to [DefaultRetries]
	RetryDelay time.Duration // Backoff base, defaults to [DefaultRetryDelay]
	NoFallback bool          // Disable serving stale entries after exhausted retries
	Sleep      func(context.Context, time.Duration) error
}

// Request describes one fetch. Zero values fall back to the client's options.
type Request struct {
	Method     string
	Headers    map[string]string
	Body       []byte
	Type       cache.Type    // Defaults to [cache.JSON]
	Duration   time.Duration // Max age of a usable cache entry; zero always goes to the network
	Retries    int
	RetryDelay time.Duration
	NoFallback bool
	Key        *cache.Key // Explicit cache key, overriding the URL fingerprint
}

// Response is the result of a fetch.
type Response struct {
	Data     []byte
	Cached   bool // Served from the cache, either fresh or stale
	Stale    bool // Served from an expired entry after the network failed
	Attempts int  // Network attempts made, zero on a fresh cache hit
	Key      cache.Key
}

// Networked reports whether the fetch touched the network.
func (r *Response) Networked() bool {
	return r.Attempts > 0
}

// Client performs cache-first HTTP fetches.
type Client struct {
	httpClient *http.Client
	store      *cache.Store
	logger     *log.Logger
	userAgent  string
	limiter    *rate.Limiter
	retries    int
	retryDelay time.Duration
	noFallback bool
	sleep      func(context.Context, time.Duration) error
}

// NewClient creates a fetch Client. A nil HTTP client uses [http.DefaultClient]
// and a nil logger discards output.
func NewClient(opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Retries <= 0 {
		opts.Retries = DefaultRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Sleep == nil {
		opts.Sleep = shared.Sleep
	}

	return &Client{
		httpClient: opts.HTTPClient,
		store:      opts.Store,
		logger:     shared.WithLogger(opts.Logger, "component", "fetch"),
		userAgent:  opts.UserAgent,
		limiter:    opts.Limiter,
		retries:    opts.Retries,
		retryDelay: opts.RetryDelay,
		noFallback: opts.NoFallback,
		sleep:      opts.Sleep,
	}
}

// Backoff returns the delay before the attempt following the given zero-based failed attempt: base * 2^attempt.
func Backoff(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(1<<attempt)
}

// Fetch returns the body at url, from the cache when a fresh entry exists, otherwise from the network.
//
// Failed attempts (transport errors, non-2xx statuses, undecodable bodies) are retried with exponential backoff.
// When every attempt fails, a stale entry of any age is served unless fallback is disabled;
// without one the call fails with a [*FetchExhaustedError].
func (c *Client) Fetch(ctx context.Context, url string, req Request) (*Response, error) {
	req = c.withDefaults(req)
	key := c.keyFor(url, req)

	if c.store != nil {
		if data, ok := c.store.Read(key, req.Duration); ok {
			c.logger.Debug("cache hit", "url", url, "key", key.Name)
			return &Response{Data: data, Cached: true, Key: key}, nil
		}
	}

	var lastErr error
	attempts := 0
	for attempt := 0; attempt < req.Retries; attempt++ {
		if attempt > 0 {
			delay := Backoff(req.RetryDelay, attempt-1)
			c.logger.Debug("retry backoff", "url", url, "attempt", attempt+1, "delay", delay)
			if err := c.sleep(ctx, delay); err != nil {
				lastErr = err
				break
			}
		}

		attempts++
		data, err := c.do(ctx, url, req)
		if err == nil {
			if c.store != nil {
				if err := c.store.Write(key, data); err != nil {
					c.logger.Warn("failed to write cache entry", "url", url, "err", err)
				}
			}
			return &Response{Data: data, Attempts: attempts, Key: key}, nil
		}

		lastErr = err
		c.logger.Warn("fetch attempt failed", "url", url, "attempt", attempts, "of", req.Retries, "err", err)

		if ctx.Err() != nil {
			break
		}
	}

	if !req.NoFallback && c.store != nil {
		if data, ok := c.store.Read(key, shared.Forever); ok {
			c.logger.Warn("serving stale cache entry", "url", url, "key", key.Name)
			return &Response{Data: data, Cached: true, Stale: true, Attempts: attempts, Key: key}, nil
		}
	}

	return nil, &FetchExhaustedError{URL: url, Attempts: attempts, Err: lastErr}
}

// FetchJSON fetches url and decodes the JSON body into out.
func (c *Client) FetchJSON(ctx context.Context, url string, req Request, out any) (*Response, error) {
	req.Type = cache.JSON
	resp, err := c.Fetch(ctx, url, req)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return resp, fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return resp, nil
}

// FetchBuffer fetches a binary payload such as an image. The retry and fallback contract is the same as [Client.Fetch].
func (c *Client) FetchBuffer(ctx context.Context, url string, req Request) (*Response, error) {
	req.Type = cache.Buffer
	return c.Fetch(ctx, url, req)
}

func (c *Client) withDefaults(req Request) Request {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if req.Type == "" {
		req.Type = cache.JSON
	}
	if req.Retries <= 0 {
		req.Retries = c.retries
	}
	if req.RetryDelay <= 0 {
		req.RetryDelay = c.retryDelay
	}
	req.NoFallback = req.NoFallback || c.noFallback
	return req
}

func (c *Client) keyFor(url string, req Request) cache.Key {
	if req.Key != nil {
		return *req.Key
	}
	return cache.KeyFor(url, cache.KeyOptions{
		Method:  req.Method,
		Headers: req.Headers,
		Body:    req.Body,
		Type:    req.Type,
	})
}

// do performs a single network attempt and validates the body for the request type.
func (c *Client) do(ctx context.Context, url string, req Request) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", shared.ErrTransientFetch, err)
		}
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTransientFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrTransientFetch, err)
	}

	if req.Type == cache.JSON && !json.Valid(data) {
		return nil, fmt.Errorf("%w: response is not valid JSON", shared.ErrTransientFetch)
	}

	return data, nil
}
