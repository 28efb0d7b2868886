package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"usps-gateway/internal/common/errors"
	"usps-gateway/internal/usps"
	"usps-gateway/internal/usps/payments"
)

type authorizeRequest struct {
	Roles []payments.Role `json:"roles"`
}

// AuthorizePayment requests a payment authorization token
// @Summary Authorize payment
// @Description Without roles the configured PAYER and LABEL_OWNER are used
// @Tags payments
// @Accept json
// @Produce json
// @Param request body authorizeRequest false "Roles"
// @Success 200 {object} usps.Result "Payment authorization"
// @Failure 401 {object} usps.Result "Authorization refused"
// @Router /api/payments/authorize [post]
func (h *Handlers) AuthorizePayment(w http.ResponseWriter, r *http.Request) {
	if h.services.Payments == nil {
		h.sendJSONError(w, r, accountNotConfigured("Payments"))
		return
	}
	var req authorizeRequest
	if err := decodeJSON(r, &req, true); err != nil {
		h.sendBadRequest(w, err)
		return
	}
	auth, err := h.services.Payments.Authorize(r.Context(), req.Roles)
	if err != nil {
		h.sendJSONError(w, r, err)
		return
	}
	h.sendResult(w, usps.ToResult(auth.Raw, nil))
}

// GetPaymentAccount looks up a payment account
// @Summary Payment account
// @Tags payments
// @Produce json
// @Param accountNumber path string true "Account number"
// @Param accountType query string false "EPS, PERMIT, METER or OMAS (default configured type)"
// @Param amount query number false "Amount to check funds for"
// @Param permitZIPCode query string false "Permit ZIP code (PERMIT accounts)"
// @Success 200 {object} usps.Result "Account"
// @Router /api/payments/accounts/{accountNumber} [get]
func (h *Handlers) GetPaymentAccount(w http.ResponseWriter, r *http.Request) {
	if h.services.Payments == nil {
		h.sendJSONError(w, r, accountNotConfigured("Payments"))
		return
	}

	values := r.URL.Query()
	q := payments.AccountQuery{
		AccountNumber: mux.Vars(r)["accountNumber"],
		AccountType:   payments.AccountType(strings.ToUpper(values.Get("accountType"))),
		PermitZIPCode: values.Get("permitZIPCode"),
	}
	if q.AccountType == "" && h.config != nil {
		q.AccountType = payments.AccountType(h.config.Account.AccountType)
	}
	if raw := values.Get("amount"); raw != "" {
		amount, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.sendBadRequest(w, errors.ValidationError("amount must be a number"))
			return
		}
		q.Amount = &amount
	}

	data, err := h.services.Payments.CheckAccount(r.Context(), q)
	if err != nil {
		h.sendJSONError(w, r, err)
		return
	}
	h.sendResult(w, usps.ToResult(data, nil))
}
