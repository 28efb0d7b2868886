package oauth2

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"usps-gateway/internal/circuitbreaker"
	"usps-gateway/internal/common/errors"
	commonhttp "usps-gateway/internal/common/http"
	"usps-gateway/internal/common/logging"
	"usps-gateway/internal/common/utils"
	"usps-gateway/internal/config"
	"usps-gateway/internal/locks"
	"usps-gateway/internal/usps/classify"
)

// CredentialSource resolves the client credentials for a family
type CredentialSource interface {
	CredentialsFor(family string) config.Credentials
}

// ClientConfig configures a Client. TokenURL, Environment and Credentials are
// required; everything else has a default.
type ClientConfig struct {
	TokenURL    string
	Environment string
	Credentials CredentialSource

	HTTPClient *http.Client
	Cache      TokenCache
	Locker     locks.Locker
	Breaker    *circuitbreaker.GoBreakerAdapter
	Clock      utils.Clock
	Logger     logging.Logger

	// Timeout bounds a single token request (default 30s)
	Timeout time.Duration
}

// Client issues client-credentials grants and caches the results
type Client struct {
	tokenURL    string
	environment string
	credentials CredentialSource
	httpClient  *http.Client
	cache       TokenCache
	locker      locks.Locker
	breaker     *circuitbreaker.GoBreakerAdapter
	clock       utils.Clock
	logger      logging.Logger
	timeout     time.Duration
	group       singleflight.Group
}

// NewClient creates a token client
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.TokenURL == "" {
		return nil, errors.ConfigurationError("OAuth token URL is required")
	}
	if cfg.Environment == "" {
		return nil, errors.ConfigurationError("USPS environment is required")
	}
	if cfg.Credentials == nil {
		return nil, errors.ConfigurationError("USPS credentials are required")
	}

	c := &Client{
		tokenURL:    cfg.TokenURL,
		environment: cfg.Environment,
		credentials: cfg.Credentials,
		httpClient:  cfg.HTTPClient,
		cache:       cfg.Cache,
		locker:      cfg.Locker,
		breaker:     cfg.Breaker,
		clock:       cfg.Clock,
		logger:      cfg.Logger,
		timeout:     cfg.Timeout,
	}
	if c.timeout <= 0 {
		c.timeout = 30 * time.Second
	}
	if c.httpClient == nil {
		c.httpClient = commonhttp.NewHTTPClientWithTimeout(c.timeout)
	}
	if c.clock == nil {
		c.clock = utils.SystemClock{}
	}
	if c.cache == nil {
		c.cache = NewMemoryTokenCache(c.clock)
	}
	if c.locker == nil {
		c.locker = locks.NoopLocker{}
	}
	if c.logger == nil {
		c.logger = logging.GetGlobalLogger()
	}
	if c.breaker == nil {
		c.breaker = circuitbreaker.NewGoBreaker("oauth", circuitbreaker.OAuthConfig, c.logger)
	}
	return c, nil
}

// TokenURL returns the endpoint grants are posted to
func (c *Client) TokenURL() string {
	return c.tokenURL
}

// Key returns the cache key for family under its current credentials
func (c *Client) Key(family string) TokenKey {
	return NewTokenKey(family, c.environment, c.credentials.CredentialsFor(family))
}

// Token returns a valid bearer token for family, fetching one with scope on
// a cache miss. Concurrent misses for the same key share one request.
func (c *Client) Token(ctx context.Context, family, scope string) (*CachedToken, error) {
	creds := c.credentials.CredentialsFor(family)
	if !creds.Complete() {
		return nil, errors.ConfigurationError("USPS client credentials are not configured for " + family)
	}
	key := NewTokenKey(family, c.environment, creds)

	if token, ok := c.cached(ctx, key); ok {
		return token, nil
	}

	ch := c.group.DoChan(key.String(), func() (interface{}, error) {
		// Detached so one caller's cancellation does not fail the others
		// waiting on the same flight.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.fetch(fetchCtx, key, creds, scope)
	})

	select {
	case <-ctx.Done():
		return nil, errors.TransportError("token request cancelled", ctx.Err()).WithOperation("oauth.token")
	case res := <-ch:
		if res.Err != nil {
			// Every waiter gets its own error to annotate
			return nil, errors.Copy(res.Err)
		}
		token := *res.Val.(*CachedToken)
		return &token, nil
	}
}

// Invalidate drops every cached token for family
func (c *Client) Invalidate(ctx context.Context, family string) error {
	return c.cache.InvalidateFamily(ctx, family)
}

// Clear drops every cached token
func (c *Client) Clear(ctx context.Context) error {
	return c.cache.Clear(ctx)
}

func (c *Client) cached(ctx context.Context, key TokenKey) (*CachedToken, bool) {
	token, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Token cache read failed",
			logging.String("family", key.Family),
			logging.Err(err),
		)
		return nil, false
	}
	return token, ok
}

func (c *Client) fetch(ctx context.Context, key TokenKey, creds config.Credentials, scope string) (*CachedToken, error) {
	release, err := c.locker.Acquire(ctx, "token:"+key.String(), c.timeout)
	if err != nil {
		c.logger.Warn("Token refresh lock unavailable, fetching without it",
			logging.String("family", key.Family),
			logging.Err(err),
		)
	} else {
		defer release()
		// Another instance may have refreshed while we waited
		if token, ok := c.cached(ctx, key); ok {
			return token, nil
		}
	}

	var token *CachedToken
	err = c.breaker.Execute(ctx, func() error {
		var reqErr error
		token, reqErr = c.request(ctx, key.Family, creds, scope)
		return reqErr
	})
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, token); err != nil {
		c.logger.Warn("Token cache write failed",
			logging.String("family", key.Family),
			logging.Err(err),
		)
	}
	return token, nil
}

func (c *Client) request(ctx context.Context, family string, creds config.Credentials, scope string) (*CachedToken, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", creds.ClientID)
	form.Set("client_secret", creds.ClientSecret)
	if scope != "" {
		form.Set("scope", scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.InternalError("failed to build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	started := c.clock.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.TransportError("OAuth token request failed", err).
			WithOperation("oauth.token").
			WithContext("family", family)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.TransportError("failed to read token response", err).WithOperation("oauth.token")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("OAuth token request rejected",
			logging.String("family", family),
			logging.Int("status", resp.StatusCode),
		)
		return nil, classify.Authentication(resp.StatusCode, body, "oauth.token").WithContext("family", family)
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, errors.ResponseParseError("failed to decode token response", err).WithOperation("oauth.token")
	}
	if tokenResp.AccessToken == "" {
		return nil, errors.AuthenticationError("token response did not include an access_token", resp.StatusCode, string(body)).
			WithOperation("oauth.token").
			WithContext("family", family)
	}

	ttl := cacheTTL(tokenResp.ExpiresIn)
	token := &CachedToken{
		Value:     tokenResp.AccessToken,
		TokenType: tokenResp.TokenType,
		ExpiresAt: started.Add(ttl),
		Scope:     tokenResp.Scope,
	}
	if token.Scope == "" {
		token.Scope = scope
	}

	c.logger.Info("OAuth token issued",
		logging.String("family", family),
		logging.Int("expires_in", int(tokenResp.ExpiresIn)),
		logging.Duration("cached_for", ttl),
		logging.Int("token_length", len(token.Value)),
	)
	return token, nil
}
