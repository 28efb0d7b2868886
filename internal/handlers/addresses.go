package handlers

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"usps-gateway/internal/common/errors"
	"usps-gateway/internal/usps"
	"usps-gateway/internal/usps/addresses"
)

const maxBatchAddresses = 100

func addressQuery(values url.Values) addresses.Query {
	return addresses.Query{
		StreetAddress:    values.Get("streetAddress"),
		SecondaryAddress: values.Get("secondaryAddress"),
		City:             values.Get("city"),
		State:            values.Get("state"),
		ZIPCode:          values.Get("ZIPCode"),
		ZIPPlus4:         values.Get("ZIPPlus4"),
		Firm:             values.Get("firm"),
		Urbanization:     values.Get("urbanization"),
	}
}

// StandardizeAddress standardizes a domestic address
// @Summary Standardize address
// @Description Returns the USPS standardized form of an address
// @Tags addresses
// @Produce json
// @Param streetAddress query string true "Street address"
// @Param city query string false "City (required without ZIPCode)"
// @Param state query string true "Two-letter state code"
// @Param ZIPCode query string false "5-digit ZIP code (required without city)"
// @Success 200 {object} usps.Result "Standardized address"
// @Failure 422 {object} usps.Result "Invalid address"
// @Router /api/addresses/standardize [get]
func (h *Handlers) StandardizeAddress(w http.ResponseWriter, r *http.Request) {
	data, err := h.services.Addresses.Standardize(r.Context(), addressQuery(r.URL.Query()))
	if err != nil {
		h.sendJSONError(w, r, err)
		return
	}
	h.sendResult(w, usps.ToResult(data, nil))
}

// LookupCityState returns the city and state of a ZIP code
// @Summary City and state lookup
// @Tags addresses
// @Produce json
// @Param zip path string true "5-digit ZIP code"
// @Success 200 {object} usps.Result "City and state"
// @Router /api/addresses/city-state/{zip} [get]
func (h *Handlers) LookupCityState(w http.ResponseWriter, r *http.Request) {
	data, err := h.services.Addresses.CityState(r.Context(), mux.Vars(r)["zip"])
	if err != nil {
		h.sendJSONError(w, r, err)
		return
	}
	h.sendResult(w, usps.ToResult(data, nil))
}

// LookupZIPCode returns the ZIP code of an address
// @Summary ZIP code lookup
// @Tags addresses
// @Produce json
// @Param streetAddress query string true "Street address"
// @Param city query string true "City"
// @Param state query string true "Two-letter state code"
// @Success 200 {object} usps.Result "ZIP code and ZIP+4"
// @Router /api/addresses/zipcode [get]
func (h *Handlers) LookupZIPCode(w http.ResponseWriter, r *http.Request) {
	data, err := h.services.Addresses.ZIPCode(r.Context(), addressQuery(r.URL.Query()))
	if err != nil {
		h.sendJSONError(w, r, err)
		return
	}
	h.sendResult(w, usps.ToResult(data, nil))
}

type batchRequest struct {
	Addresses []addresses.Query `json:"addresses"`
}

// ValidateAddresses standardizes a list of addresses
// @Summary Batch address validation
// @Description Standardizes up to 100 addresses. Each entry succeeds or fails on its own.
// @Tags addresses
// @Accept json
// @Produce json
// @Param request body batchRequest true "Addresses"
// @Success 200 {object} map[string]interface{} "Per-address results in input order"
// @Router /api/addresses/batch [post]
func (h *Handlers) ValidateAddresses(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.sendBadRequest(w, err)
		return
	}
	if len(req.Addresses) == 0 {
		h.sendJSONError(w, r, errors.ValidationError("addresses must contain at least one address"))
		return
	}
	if len(req.Addresses) > maxBatchAddresses {
		h.sendJSONError(w, r, errors.Validationf("addresses must contain at most %d addresses", maxBatchAddresses))
		return
	}

	results := h.services.Addresses.ValidateMultipleAddresses(r.Context(), req.Addresses)
	valid := 0
	for _, res := range results {
		if res.Success {
			valid++
		}
	}
	h.sendJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"total":   len(results),
		"valid":   valid,
		"results": results,
	})
}
