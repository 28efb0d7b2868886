package usps

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"usps-gateway/internal/circuitbreaker"
	"usps-gateway/internal/common/errors"
	commonhttp "usps-gateway/internal/common/http"
	"usps-gateway/internal/common/logging"
	"usps-gateway/internal/common/ratelimit"
	"usps-gateway/internal/common/utils"
	"usps-gateway/internal/oauth2"
	"usps-gateway/internal/usps/classify"
)

// TokenSource issues bearer tokens per family. *oauth2.Client implements it.
type TokenSource interface {
	Token(ctx context.Context, family, scope string) (*oauth2.CachedToken, error)
	Invalidate(ctx context.Context, family string) error
}

// Options are the collaborators shared by every family's Executor
type Options struct {
	Endpoints Endpoints
	Tokens    TokenSource

	HTTPClient *http.Client
	Limiter    ratelimit.Limiter
	Breakers   *circuitbreaker.GoBreakerManager
	Retry      utils.RetryPolicy
	Clock      utils.Clock
	Logger     logging.Logger

	// Timeout bounds each attempt (default 30s)
	Timeout time.Duration
	// HasCredentials is reported by Info
	HasCredentials bool
}

// Request describes one logical call to a USPS endpoint
type Request struct {
	// Operation names the call in logs and errors, e.g. "labels.create"
	Operation string
	Method    string
	// Path is appended to the family base URL
	Path  string
	Query url.Values
	// Body is JSON-encoded when non-nil
	Body interface{}
	// Prepare runs before every attempt, after the bearer token is set.
	// Label calls use it to attach a fresh payment authorization.
	Prepare func(ctx context.Context, header http.Header) error
}

// Response is a parsed 2xx answer
type Response struct {
	StatusCode  int
	ContentType string
	Header      http.Header
	Data        map[string]interface{}
	Raw         []byte
}

// Executor runs requests against one API family: rate limit, circuit
// breaker, bearer token, send, parse and classify, all under the retry policy.
type Executor struct {
	family     Family
	baseURL    string
	endpoints  Endpoints
	tokens     TokenSource
	httpClient *http.Client
	limiter    ratelimit.Limiter
	breaker    *circuitbreaker.GoBreakerAdapter
	retry      utils.RetryPolicy
	clock      utils.Clock
	logger     logging.Logger
	timeout    time.Duration
	hasCreds   bool
}

// NewExecutor creates the executor for family
func NewExecutor(family Family, opts Options) (*Executor, error) {
	if !family.IsValid() {
		return nil, errors.ConfigurationError("unknown USPS API family: " + string(family))
	}
	if opts.Tokens == nil {
		return nil, errors.ConfigurationError("a token source is required for " + string(family))
	}

	e := &Executor{
		family:     family,
		baseURL:    opts.Endpoints.BaseURL(family),
		endpoints:  opts.Endpoints,
		tokens:     opts.Tokens,
		httpClient: opts.HTTPClient,
		limiter:    opts.Limiter,
		retry:      opts.Retry,
		clock:      opts.Clock,
		logger:     opts.Logger,
		timeout:    opts.Timeout,
		hasCreds:   opts.HasCredentials,
	}
	if e.timeout <= 0 {
		e.timeout = 30 * time.Second
	}
	if e.httpClient == nil {
		e.httpClient = commonhttp.NewHTTPClientWithTimeout(e.timeout)
	}
	if e.clock == nil {
		e.clock = utils.SystemClock{}
	}
	if e.logger == nil {
		e.logger = logging.GetGlobalLogger()
	}
	e.logger = e.logger.WithFields(logging.String("family", string(family)))
	if e.retry.MaxAttempts <= 0 {
		e.retry = utils.DefaultRetryPolicy()
	}

	breakers := opts.Breakers
	if breakers == nil {
		breakers = circuitbreaker.NewGoBreakerManager(circuitbreaker.DefaultConfig(), e.logger)
	}
	e.breaker = breakers.Get(string(family))

	return e, nil
}

// Family returns the API family
func (e *Executor) Family() Family {
	return e.family
}

// BaseURL returns the family base URL
func (e *Executor) BaseURL() string {
	return e.baseURL
}

// Clock returns the executor clock, used for mailing-date defaults
func (e *Executor) Clock() utils.Clock {
	return e.clock
}

// Logger returns the family-scoped logger
func (e *Executor) Logger() logging.Logger {
	return e.logger
}

// Token returns a bearer token for the family
func (e *Executor) Token(ctx context.Context) (*oauth2.CachedToken, error) {
	return e.tokens.Token(ctx, string(e.family), e.family.Scope())
}

// ClearToken drops the cached bearer token for the family
func (e *Executor) ClearToken(ctx context.Context) error {
	return e.tokens.Invalidate(ctx, string(e.family))
}

// Info describes the executor without exposing secrets
type Info struct {
	Family         Family `json:"family"`
	Environment    string `json:"environment"`
	BaseURL        string `json:"base_url"`
	OAuthURL       string `json:"oauth_url"`
	Timeout        string `json:"timeout"`
	MaxRetries     int    `json:"max_retries"`
	HasCredentials bool   `json:"has_credentials"`
	CircuitState   string `json:"circuit_state"`
}

// Info returns the executor configuration for diagnostics
func (e *Executor) Info() Info {
	return Info{
		Family:         e.family,
		Environment:    e.endpoints.Environment,
		BaseURL:        e.baseURL,
		OAuthURL:       e.endpoints.TokenURL,
		Timeout:        e.timeout.String(),
		MaxRetries:     e.retry.MaxAttempts,
		HasCredentials: e.hasCreds,
		CircuitState:   e.breaker.State().String(),
	}
}

type singleAttemptKey struct{}

// WithSingleAttempt marks ctx so Do makes exactly one attempt. Calls nested
// inside another executor's attempt use it, leaving retries to the outer call.
func WithSingleAttempt(ctx context.Context) context.Context {
	return context.WithValue(ctx, singleAttemptKey{}, true)
}

// Do executes req under the retry policy and returns the parsed response
func (e *Executor) Do(ctx context.Context, req Request) (*Response, error) {
	policy := e.retry
	if single, _ := ctx.Value(singleAttemptKey{}).(bool); single {
		policy.MaxAttempts = 1
	}

	var resp *Response
	err := policy.Execute(ctx, func(attempt int) error {
		var attemptErr error
		resp, attemptErr = e.attempt(ctx, req, attempt)
		return attemptErr
	})
	if err != nil {
		if appErr, ok := errors.As(err); ok && appErr.Operation == "" {
			appErr.WithOperation(req.Operation)
		}
		return nil, err
	}
	return resp, nil
}

func (e *Executor) attempt(ctx context.Context, req Request, attempt int) (*Response, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx, string(e.family)); err != nil {
			return nil, err
		}
	}

	var resp *Response
	err := e.breaker.Execute(ctx, func() error {
		var sendErr error
		resp, sendErr = e.send(ctx, req, attempt)
		return sendErr
	})
	return resp, err
}

func (e *Executor) send(ctx context.Context, req Request, attempt int) (*Response, error) {
	token, err := e.Token(ctx)
	if err != nil {
		return nil, err
	}

	attemptCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	httpReq, err := e.newHTTPRequest(attemptCtx, req)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token.Value)
	if req.Prepare != nil {
		if err := req.Prepare(attemptCtx, httpReq.Header); err != nil {
			return nil, err
		}
	}

	started := time.Now()
	httpResp, err := e.httpClient.Do(httpReq)
	if err != nil {
		e.logger.WithContext(ctx).Warn("USPS request failed",
			logging.String("operation", req.Operation),
			logging.String("method", req.Method),
			logging.String("path", req.Path),
			logging.Int("attempt", attempt),
			logging.Duration("duration", time.Since(started)),
			logging.Err(err),
		)
		return nil, errors.TransportError("USPS request failed", err).
			WithOperation(req.Operation).
			WithContext("attempt", attempt)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.TransportError("failed to read USPS response", err).WithOperation(req.Operation)
	}

	e.logger.WithContext(ctx).Info("USPS request completed",
		logging.String("operation", req.Operation),
		logging.String("method", req.Method),
		logging.String("path", req.Path),
		logging.Int("attempt", attempt),
		logging.Int("status", httpResp.StatusCode),
		logging.Duration("duration", time.Since(started)),
	)

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		apiErr := classify.Classify(httpResp.StatusCode, body, req.Operation)
		if httpResp.StatusCode == http.StatusUnauthorized {
			if err := e.ClearToken(ctx); err != nil {
				e.logger.Warn("Failed to invalidate rejected token", logging.Err(err))
			}
			// A stale token is worth exactly one more try with a fresh one
			if attempt == 1 {
				apiErr.Retryable = true
			}
		}
		return nil, apiErr
	}

	contentType := httpResp.Header.Get("Content-Type")
	data, err := ParseResponse(body, contentType)
	if err != nil {
		if appErr, ok := errors.As(err); ok {
			appErr.WithOperation(req.Operation)
		}
		return nil, err
	}

	return &Response{
		StatusCode:  httpResp.StatusCode,
		ContentType: contentType,
		Header:      httpResp.Header,
		Data:        data,
		Raw:         body,
	}, nil
}

func (e *Executor) newHTTPRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := e.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, errors.InternalError("failed to encode request body", err).WithOperation(req.Operation)
		}
		body = bytes.NewReader(encoded)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.InternalError("failed to build request", err).WithOperation(req.Operation)
	}

	httpReq.Header.Set("Accept", ContentTypeJSON)
	if body != nil {
		httpReq.Header.Set("Content-Type", ContentTypeJSON)
	}
	requestID, ok := logging.RequestIDFromContext(ctx)
	if !ok || requestID == "" {
		requestID = utils.GenerateRequestID()
	}
	httpReq.Header.Set("X-Request-ID", requestID)

	return httpReq, nil
}
