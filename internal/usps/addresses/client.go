// Package addresses standardizes domestic addresses and looks up city/state
// by ZIP code and ZIP code by address. Successful lookups can be cached.
package addresses

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"usps-gateway/internal/common/cache"
	"usps-gateway/internal/common/errors"
	"usps-gateway/internal/common/logging"
	"usps-gateway/internal/usps"
)

const (
	defaultBatchConcurrency = 4
	testConnectionZIP       = "90210"
)

// Client talks to the Addresses API
type Client struct {
	exec        *usps.Executor
	cache       cache.Cache
	cacheTTL    time.Duration
	concurrency int
	logger      logging.Logger
}

// Option configures a Client
type Option func(*Client)

// WithCache stores successful lookups in c for ttl. A zero ttl disables it.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(cl *Client) {
		if ttl > 0 {
			cl.cache = c
			cl.cacheTTL = ttl
		}
	}
}

// WithBatchConcurrency bounds the concurrent lookups of ValidateMultipleAddresses
func WithBatchConcurrency(n int) Option {
	return func(cl *Client) {
		if n > 0 {
			cl.concurrency = n
		}
	}
}

// NewClient creates an addresses client
func NewClient(exec *usps.Executor, opts ...Option) (*Client, error) {
	if exec == nil {
		return nil, errors.ConfigurationError("addresses executor is required")
	}
	c := &Client{
		exec:        exec,
		concurrency: defaultBatchConcurrency,
		logger:      exec.Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Standardize returns the USPS standardized form of q
func (c *Client) Standardize(ctx context.Context, q Query) (map[string]interface{}, error) {
	values, err := BuildStandardize(q)
	if err != nil {
		return nil, withOperation(err, "addresses.standardize")
	}
	return c.lookup(ctx, "addresses.standardize", "/address", values)
}

// CityState returns the city and state of a 5-digit ZIP code
func (c *Client) CityState(ctx context.Context, zip string) (map[string]interface{}, error) {
	values, err := BuildCityState(zip)
	if err != nil {
		return nil, withOperation(err, "addresses.city_state")
	}
	return c.lookup(ctx, "addresses.city_state", "/city-state", values)
}

// ZIPCode returns the ZIP code and ZIP+4 of an address
func (c *Client) ZIPCode(ctx context.Context, q Query) (map[string]interface{}, error) {
	values, err := BuildZIPCodeLookup(q)
	if err != nil {
		return nil, withOperation(err, "addresses.zipcode")
	}
	return c.lookup(ctx, "addresses.zipcode", "/zipcode", values)
}

// ValidateAddress standardizes q and flattens the answer
func (c *Client) ValidateAddress(ctx context.Context, q Query) (*StandardizedAddress, error) {
	resp, err := c.Standardize(ctx, q)
	if err != nil {
		return nil, err
	}
	std := ExtractStandardizedAddress(resp)
	return &std, nil
}

// BatchResult is the outcome for one address of a batch
type BatchResult struct {
	Index int `json:"index"`
	usps.Result
}

// ValidateMultipleAddresses standardizes every query, a few at a time. One
// failing address does not stop the others; results keep the input order.
func (c *Client) ValidateMultipleAddresses(ctx context.Context, queries []Query) []BatchResult {
	results := make([]BatchResult, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			resp, err := c.Standardize(gctx, q)
			results[i] = BatchResult{Index: i, Result: usps.ToResult(resp, err)}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	c.logger.WithContext(ctx).Info("Batch address validation completed",
		logging.Int("addresses", len(queries)),
		logging.Int("failed", failed),
	)
	return results
}

func (c *Client) lookup(ctx context.Context, op, path string, values url.Values) (map[string]interface{}, error) {
	key := cache.HashKey(op, values)
	if c.cache != nil {
		var cached map[string]interface{}
		if cache.GetJSON(ctx, c.cache, key, &cached) {
			c.logger.WithContext(ctx).Debug("Address lookup served from cache", logging.String("operation", op))
			return cached, nil
		}
	}

	resp, err := c.exec.Do(ctx, usps.Request{
		Operation: op,
		Method:    http.MethodGet,
		Path:      path,
		Query:     values,
	})
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := cache.SetJSON(ctx, c.cache, key, resp.Data, c.cacheTTL); err != nil {
			c.logger.Warn("Failed to cache address lookup", logging.String("operation", op), logging.Err(err))
		}
	}
	return resp.Data, nil
}

// ClearCache drops every cached lookup
func (c *Client) ClearCache(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Clear(ctx)
}

// ClearCachedToken drops the addresses bearer token
func (c *Client) ClearCachedToken(ctx context.Context) error {
	return c.exec.ClearToken(ctx)
}

// ConfigInfo describes the client configuration without secrets
func (c *Client) ConfigInfo() usps.Info {
	return c.exec.Info()
}

// TestConnection looks up the city and state of 90210
func (c *Client) TestConnection(ctx context.Context) usps.Result {
	data, err := c.CityState(ctx, testConnectionZIP)
	if err != nil {
		return usps.ToResult(nil, err)
	}
	info := c.exec.Info()
	return usps.ToResult(map[string]interface{}{
		"message":     "USPS Address API connection successful",
		"environment": info.Environment,
		"base_url":    info.BaseURL,
		"test_data":   data,
	}, nil)
}

func withOperation(err error, op string) error {
	if appErr, ok := errors.As(err); ok && appErr.Operation == "" {
		return appErr.WithOperation(op)
	}
	return err
}
