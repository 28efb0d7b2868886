package handlers

import (
	"context"
	"net/http"

	"usps-gateway/internal/usps"
	"usps-gateway/internal/usps/prices"
)

// search decodes the body into q and runs fn
func search[Q any](h *Handlers, w http.ResponseWriter, r *http.Request, fn func(context.Context, Q) (*prices.SearchResult, error)) {
	var q Q
	if err := decodeJSON(r, &q, false); err != nil {
		h.sendBadRequest(w, err)
		return
	}
	result, err := fn(r.Context(), q)
	if err != nil {
		h.sendJSONError(w, r, err)
		return
	}
	h.sendResult(w, usps.ToResult(result.ToMap(), nil))
}

// SearchBaseRates prices a domestic package
// @Summary Base rates
// @Tags prices
// @Accept json
// @Produce json
// @Param request body prices.BaseRatesQuery true "Package"
// @Success 200 {object} usps.Result "Rates"
// @Failure 422 {object} usps.Result "Missing or invalid fields"
// @Router /api/prices/base-rates [post]
func (h *Handlers) SearchBaseRates(w http.ResponseWriter, r *http.Request) {
	search(h, w, r, h.services.Prices.SearchBaseRates)
}

// SearchExtraServiceRates prices extra services
// @Summary Extra service rates
// @Tags prices
// @Accept json
// @Produce json
// @Param request body prices.ExtraServiceRatesQuery true "Extra services"
// @Success 200 {object} usps.Result "Rates"
// @Router /api/prices/extra-service-rates [post]
func (h *Handlers) SearchExtraServiceRates(w http.ResponseWriter, r *http.Request) {
	search(h, w, r, h.services.Prices.SearchExtraServiceRates)
}

// SearchTotalRates prices a package with its extra services
// @Summary Total rates
// @Tags prices
// @Accept json
// @Produce json
// @Param request body prices.TotalRatesQuery true "Package and extra services"
// @Success 200 {object} usps.Result "Rates"
// @Router /api/prices/total-rates [post]
func (h *Handlers) SearchTotalRates(w http.ResponseWriter, r *http.Request) {
	search(h, w, r, h.services.Prices.SearchTotalRates)
}

// SearchBaseRatesList lists the rates of every eligible mail class
// @Summary Base rates list
// @Tags prices
// @Accept json
// @Produce json
// @Param request body prices.RatesListQuery true "Package"
// @Success 200 {object} usps.Result "Rate options"
// @Router /api/prices/base-rates-list [post]
func (h *Handlers) SearchBaseRatesList(w http.ResponseWriter, r *http.Request) {
	search(h, w, r, h.services.Prices.SearchBaseRatesList)
}

// SearchLetterRates prices a letter or flat
// @Summary Letter rates
// @Tags prices
// @Accept json
// @Produce json
// @Param request body prices.LetterRatesQuery true "Letter"
// @Success 200 {object} usps.Result "Rates"
// @Router /api/prices/letter-rates [post]
func (h *Handlers) SearchLetterRates(w http.ResponseWriter, r *http.Request) {
	search(h, w, r, h.services.Prices.SearchLetterRates)
}
