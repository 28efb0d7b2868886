// Package payments obtains payment authorization tokens, which every label
// call must carry, and inquires about payment accounts.
package payments

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"usps-gateway/internal/common/errors"
	"usps-gateway/internal/common/logging"
	"usps-gateway/internal/common/validation"
	"usps-gateway/internal/config"
	"usps-gateway/internal/usps"
)

// HeaderPaymentAuthorization carries the payment token on label calls
const HeaderPaymentAuthorization = "X-Payment-Authorization-Token"

const defaultPermitZIP = "10001"

// Authorization is a payment authorization response
type Authorization struct {
	Token string                 `json:"paymentAuthorizationToken"`
	Raw   map[string]interface{} `json:"-"`
}

// Authorizer issues payment authorizations. Label clients depend on this
// rather than on *Client.
type Authorizer interface {
	Authorize(ctx context.Context, roles []Role) (*Authorization, error)
	DefaultRoles() []Role
	ReturnLabelRoles() []Role
}

// Client talks to the Payments API
type Client struct {
	exec    *usps.Executor
	account config.Account
	logger  logging.Logger
}

// NewClient creates a payments client. The account identifiers must be
// complete since every authorization embeds them.
func NewClient(exec *usps.Executor, cfg *config.Config) (*Client, error) {
	if exec == nil {
		return nil, errors.ConfigurationError("payments executor is required")
	}
	if err := cfg.ValidateAccount(); err != nil {
		return nil, err
	}
	return &Client{
		exec:    exec,
		account: cfg.Account,
		logger:  exec.Logger(),
	}, nil
}

// DefaultRoles returns PAYER and LABEL_OWNER for the configured account
func (c *Client) DefaultRoles() []Role {
	return DefaultRoles(c.account)
}

// ReturnLabelRoles returns the roles used for return labels
func (c *Client) ReturnLabelRoles() []Role {
	return ReturnLabelRoles(c.account)
}

// Authorize requests a payment authorization token. Nil or empty roles use
// the defaults; a custom list must include PAYER and LABEL_OWNER. Tokens are
// not cached: each label operation authorizes afresh.
func (c *Client) Authorize(ctx context.Context, roles []Role) (*Authorization, error) {
	if len(roles) == 0 {
		roles = c.DefaultRoles()
	} else if err := ValidateCustomRoles(roles); err != nil {
		return nil, appendOperation(err, "payments.authorize")
	}

	resp, err := c.exec.Do(ctx, usps.Request{
		Operation: "payments.authorize",
		Method:    http.MethodPost,
		Path:      "/payment-authorization",
		Body:      rolesRequest{Roles: roles},
	})
	if err != nil {
		return nil, asAuthenticationError(err)
	}

	token, _ := resp.Data["paymentAuthorizationToken"].(string)
	if token == "" {
		return nil, errors.AuthenticationError("payment authorization token is empty in response", resp.StatusCode, string(resp.Raw)).
			WithOperation("payments.authorize")
	}

	c.logger.WithContext(ctx).Info("Payment authorization issued",
		logging.Int("roles", len(roles)),
		logging.Int("token_length", len(token)),
	)
	return &Authorization{Token: token, Raw: resp.Data}, nil
}

// AuthorizeHeader returns a usps.Request Prepare hook that sets a freshly
// authorized payment token on each attempt. The authorization itself is
// tried once per attempt; the label call's own policy does the retrying.
func AuthorizeHeader(a Authorizer, roles []Role) func(ctx context.Context, header http.Header) error {
	return func(ctx context.Context, header http.Header) error {
		auth, err := a.Authorize(usps.WithSingleAttempt(ctx), roles)
		if err != nil {
			return err
		}
		header.Set(HeaderPaymentAuthorization, auth.Token)
		return nil
	}
}

// AccountQuery selects a payment account and optional amount to check
type AccountQuery struct {
	AccountNumber string      `json:"accountNumber" validate:"required,max=50"`
	AccountType   AccountType `json:"accountType" validate:"required,enum"`
	Amount        *float64    `json:"amount,omitempty" validate:"omitempty,gte=0.01,lte=999999.99"`
	PermitZIPCode string      `json:"permitZIPCode,omitempty" validate:"omitempty,zip5"`
}

// CheckAccount looks up a payment account and, with an amount, whether it
// has sufficient funds
func (c *Client) CheckAccount(ctx context.Context, q AccountQuery) (map[string]interface{}, error) {
	if err := validation.ValidateStruct(q); err != nil {
		return nil, appendOperation(err, "payments.account")
	}

	query := url.Values{}
	query.Set("accountType", string(q.AccountType))
	if q.Amount != nil {
		query.Set("amount", strconv.FormatFloat(*q.Amount, 'f', 2, 64))
	}
	if q.AccountType == AccountPermit {
		zip := q.PermitZIPCode
		if zip == "" {
			zip = defaultPermitZIP
		}
		query.Set("permitZIPCode", zip)
	}

	resp, err := c.exec.Do(ctx, usps.Request{
		Operation: "payments.account",
		Method:    http.MethodGet,
		Path:      "/payment-account/" + url.PathEscape(strings.TrimSpace(q.AccountNumber)),
		Query:     query,
	})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// HasSufficientFunds reports the account's sufficientFunds flag for amount
func (c *Client) HasSufficientFunds(ctx context.Context, accountNumber string, accountType AccountType, amount float64) (bool, error) {
	data, err := c.CheckAccount(ctx, AccountQuery{
		AccountNumber: accountNumber,
		AccountType:   accountType,
		Amount:        &amount,
	})
	if err != nil {
		return false, err
	}
	sufficient, _ := data["sufficientFunds"].(bool)
	return sufficient, nil
}

// ConfigInfo describes the client configuration without secrets
func (c *Client) ConfigInfo() usps.Info {
	return c.exec.Info()
}

// ClearCachedToken drops the payments bearer token
func (c *Client) ClearCachedToken(ctx context.Context) error {
	return c.exec.ClearToken(ctx)
}

// TestConnection obtains a bearer token and a payment authorization
func (c *Client) TestConnection(ctx context.Context) usps.Result {
	info := c.exec.Info()
	if _, err := c.exec.Token(ctx); err != nil {
		return usps.ToResult(nil, err)
	}
	auth, err := c.Authorize(ctx, nil)
	if err != nil {
		return usps.ToResult(nil, err)
	}
	return usps.ToResult(map[string]interface{}{
		"message":            "USPS Payments API connection successful",
		"environment":        info.Environment,
		"base_url":           info.BaseURL,
		"token_valid":        true,
		"payment_auth_valid": auth.Token != "",
	}, nil)
}

// asAuthenticationError re-kinds an API rejection of the authorization call.
// Transport and parse failures keep their kind.
func asAuthenticationError(err error) error {
	appErr, ok := errors.As(err)
	if !ok || appErr.Kind != errors.KindAPI {
		return err
	}
	appErr.Kind = errors.KindAuthentication
	return appErr
}

func appendOperation(err error, op string) error {
	if appErr, ok := errors.As(err); ok {
		return appErr.WithOperation(op)
	}
	return err
}
