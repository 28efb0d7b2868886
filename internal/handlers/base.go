// Package handlers exposes the USPS clients as a JSON HTTP API. Every
// operation answers with the uniform usps.Result envelope.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"usps-gateway/internal/circuitbreaker"
	"usps-gateway/internal/common/errors"
	"usps-gateway/internal/common/logging"
	"usps-gateway/internal/config"
	"usps-gateway/internal/usps"
	"usps-gateway/internal/usps/addresses"
	"usps-gateway/internal/usps/intl"
	"usps-gateway/internal/usps/labels"
	"usps-gateway/internal/usps/payments"
	"usps-gateway/internal/usps/prices"
)

const maxBodyBytes = 1 << 20

// TokenStore drops cached bearer tokens
type TokenStore interface {
	Invalidate(ctx context.Context, family string) error
	Clear(ctx context.Context) error
}

// Services are the clients behind the routes. Labels, International and
// Payments are nil when no account is configured; their routes then answer
// with a configuration error.
type Services struct {
	Addresses     *addresses.Client
	Prices        *prices.Client
	Labels        *labels.Client
	International *intl.Client
	Payments      *payments.Client
	Tokens        TokenStore
	Breakers      *circuitbreaker.GoBreakerManager
}

type Handlers struct {
	services Services
	config   *config.Config
	logger   logging.Logger
}

func New(cfg *config.Config, services Services, logger logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Handlers{
		services: services,
		config:   cfg,
		logger:   logger,
	}
}

func (h *Handlers) sendJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", err)
	}
}

// sendResult writes r with its own status code
func (h *Handlers) sendResult(w http.ResponseWriter, r usps.Result) {
	h.sendJSONResponse(w, r.StatusCode, r)
}

// sendJSONError folds err into a failed Result. Errors other than
// validation and upstream API rejections are logged.
func (h *Handlers) sendJSONError(w http.ResponseWriter, r *http.Request, err error) {
	result := usps.ToResult(nil, err)
	switch errors.KindOf(err) {
	case errors.KindValidation, errors.KindAPI:
	default:
		h.logger.WithContext(r.Context()).Error("Request failed", err,
			logging.String("path", r.URL.Path),
			logging.Int("status", result.StatusCode),
		)
	}
	h.sendResult(w, result)
}

// sendBadRequest answers a malformed request body with 400
func (h *Handlers) sendBadRequest(w http.ResponseWriter, err error) {
	result := usps.ToResult(nil, err)
	result.StatusCode = http.StatusBadRequest
	h.sendResult(w, result)
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched
// when allowEmpty is set.
func decodeJSON(r *http.Request, v interface{}, allowEmpty bool) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.ValidationError("Failed to read request body")
	}
	if len(body) == 0 {
		if allowEmpty {
			return nil
		}
		return errors.ValidationError("Request body is required")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.ValidationError("Invalid JSON body: " + err.Error())
	}
	return nil
}

func notConfigured(what string) error {
	return errors.ConfigurationError(what + " is not configured")
}

func accountNotConfigured(service string) error {
	return errors.ConfigurationError(service + " client is not configured").WithDetails("set USPS_CRID, USPS_MID and USPS_ACCOUNT_NUMBER")
}
