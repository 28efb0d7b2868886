// Package prices searches domestic base, extra service, total, list and
// letter rates.
package prices

import (
	"context"
	"net/http"

	"usps-gateway/internal/common/errors"
	"usps-gateway/internal/common/logging"
	"usps-gateway/internal/config"
	"usps-gateway/internal/usps"
)

const (
	pathBaseRates         = "/base-rates/search"
	pathExtraServiceRates = "/extra-service-rates/search"
	pathTotalRates        = "/total-rates/search"
	pathBaseRatesList     = "/base-rates-list/search"
	pathLetterRates       = "/letter-rates/search"
)

// Client talks to the Domestic Prices API
type Client struct {
	exec    *usps.Executor
	builder *Builder
	logger  logging.Logger
}

// NewClient creates a prices client. Letter searches fall back to the
// configured default ZIP codes.
func NewClient(exec *usps.Executor, cfg *config.Config) (*Client, error) {
	if exec == nil {
		return nil, errors.ConfigurationError("prices executor is required")
	}
	letters := LetterDefaults{}
	if cfg != nil {
		letters = LetterDefaults{
			OriginZIPCode:      cfg.DefaultLetterOrigin,
			DestinationZIPCode: cfg.DefaultLetterDest,
		}
	}
	return &Client{
		exec:    exec,
		builder: NewBuilder(exec.Clock(), letters),
		logger:  exec.Logger(),
	}, nil
}

// SearchBaseRates prices one mail class
func (c *Client) SearchBaseRates(ctx context.Context, q BaseRatesQuery) (*SearchResult, error) {
	body, err := c.builder.BaseRates(q)
	if err != nil {
		return nil, withOperation(err, "prices.base_rates")
	}
	return c.search(ctx, "prices.base_rates", pathBaseRates, body)
}

// SearchExtraServiceRates prices extra services
func (c *Client) SearchExtraServiceRates(ctx context.Context, q ExtraServiceRatesQuery) (*SearchResult, error) {
	body, err := c.builder.ExtraServiceRates(q)
	if err != nil {
		return nil, withOperation(err, "prices.extra_service_rates")
	}
	return c.search(ctx, "prices.extra_service_rates", pathExtraServiceRates, body)
}

// SearchTotalRates prices a piece including its extra services
func (c *Client) SearchTotalRates(ctx context.Context, q TotalRatesQuery) (*SearchResult, error) {
	body, err := c.builder.TotalRates(q)
	if err != nil {
		return nil, withOperation(err, "prices.total_rates")
	}
	return c.search(ctx, "prices.total_rates", pathTotalRates, body)
}

// SearchBaseRatesList lists every eligible product for a route and piece
func (c *Client) SearchBaseRatesList(ctx context.Context, q RatesListQuery) (*SearchResult, error) {
	body, err := c.builder.RatesList(q)
	if err != nil {
		return nil, withOperation(err, "prices.base_rates_list")
	}
	return c.search(ctx, "prices.base_rates_list", pathBaseRatesList, body)
}

// SearchLetterRates prices a letter or flat
func (c *Client) SearchLetterRates(ctx context.Context, q LetterRatesQuery) (*SearchResult, error) {
	body, err := c.builder.LetterRates(q)
	if err != nil {
		return nil, withOperation(err, "prices.letter_rates")
	}
	return c.search(ctx, "prices.letter_rates", pathLetterRates, body)
}

func (c *Client) search(ctx context.Context, op, path string, body interface{}) (*SearchResult, error) {
	resp, err := c.exec.Do(ctx, usps.Request{
		Operation: op,
		Method:    http.MethodPost,
		Path:      path,
		Body:      body,
	})
	if err != nil {
		return nil, err
	}

	res := newSearchResult(resp.Data, resp.Raw)
	c.logger.WithContext(ctx).Debug("Prices search completed",
		logging.String("operation", op),
		logging.Int("quotes", len(res.Quotes)),
	)
	return res, nil
}

// ConfigInfo describes the client configuration without secrets
func (c *Client) ConfigInfo() usps.Info {
	return c.exec.Info()
}

// ClearCachedToken drops the prices bearer token
func (c *Client) ClearCachedToken(ctx context.Context) error {
	return c.exec.ClearToken(ctx)
}

// TestConnection quotes a Ground Advantage parcel between two fixed ZIP codes
func (c *Client) TestConnection(ctx context.Context) usps.Result {
	res, err := c.SearchBaseRates(ctx, BaseRatesQuery{
		OriginZIPCode:                "22407",
		DestinationZIPCode:           "63118",
		Weight:                       1.5,
		Length:                       10,
		Width:                        8,
		Height:                       4,
		MailClass:                    usps.MailClassGroundAdvantage,
		ProcessingCategory:           usps.ProcessingMachinable,
		RateIndicator:                "SP",
		DestinationEntryFacilityType: usps.FacilityNone,
		PriceType:                    PriceCommercial,
	})
	if err != nil {
		return usps.ToResult(nil, err)
	}
	info := c.exec.Info()
	data := map[string]interface{}{
		"message":     "USPS Prices API connection successful",
		"environment": info.Environment,
		"base_url":    info.BaseURL,
	}
	if res.TotalBasePrice != nil {
		data["sample_price"] = *res.TotalBasePrice
	}
	return usps.ToResult(data, nil)
}

func withOperation(err error, op string) error {
	if appErr, ok := errors.As(err); ok && appErr.Operation == "" {
		return appErr.WithOperation(op)
	}
	return err
}
