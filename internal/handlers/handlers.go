package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"usps-gateway/internal/circuitbreaker"
	"usps-gateway/internal/common/logging"
	"usps-gateway/internal/usps"
)

// HealthCheck returns the health status of the gateway
// @Summary Health check
// @Description Returns the health status of the gateway
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{} "Health status"
// @Router /health [get]
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.sendJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

// GetStatus reports the circuit breaker state of every API family
// @Summary Gateway status
// @Description Returns circuit breaker statistics per USPS API family
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{} "Breaker statistics"
// @Router /api/status [get]
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	}
	if h.services.Breakers != nil {
		stats := h.services.Breakers.AllStats()
		open := 0
		for _, s := range stats {
			if s.State == circuitbreaker.StateOpen.String() {
				open++
			}
		}
		if open > 0 {
			status["status"] = "degraded"
		}
		status["circuit_breakers"] = stats
	}
	h.sendJSONResponse(w, http.StatusOK, status)
}

// GetConfig describes the configuration of every client without secrets
// @Summary Client configuration
// @Description Returns environment, URLs, timeouts and whether credentials are present
// @Tags system
// @Produce json
// @Success 200 {object} usps.Result "Configuration"
// @Router /api/config [get]
func (h *Handlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	clients := map[string]interface{}{}
	if c := h.services.Addresses; c != nil {
		clients[string(usps.FamilyAddresses)] = c.ConfigInfo()
	}
	if c := h.services.Prices; c != nil {
		clients[string(usps.FamilyPrices)] = c.ConfigInfo()
	}
	if c := h.services.Labels; c != nil {
		clients[string(usps.FamilyLabels)] = c.ConfigInfo()
	}
	if c := h.services.International; c != nil {
		clients[string(usps.FamilyInternationalLabels)] = c.ConfigInfo()
	}
	if c := h.services.Payments; c != nil {
		clients[string(usps.FamilyPayments)] = c.ConfigInfo()
	}

	data := map[string]interface{}{"clients": clients}
	if h.config != nil {
		data["environment"] = h.config.Environment
		data["token_cache"] = h.config.TokenCache
		data["account"] = map[string]interface{}{
			"crid":           h.config.Account.CRID,
			"mid":            h.config.Account.MID,
			"manifest_mid":   h.config.Account.ManifestMID,
			"account_type":   h.config.Account.AccountType,
			"account_number": logging.Redact(h.config.Account.AccountNumber),
		}
	}
	h.sendResult(w, usps.ToResult(data, nil))
}

// ClearTokens drops cached bearer tokens, for one family or all of them
// @Summary Clear cached tokens
// @Description Drops the cached OAuth token of one API family, or of every family
// @Tags system
// @Produce json
// @Param family path string false "API family"
// @Success 200 {object} usps.Result "Tokens cleared"
// @Failure 422 {object} usps.Result "Unknown family"
// @Router /api/tokens/{family} [delete]
func (h *Handlers) ClearTokens(w http.ResponseWriter, r *http.Request) {
	if h.services.Tokens == nil {
		h.sendJSONError(w, r, notConfigured("Token store"))
		return
	}

	ctx := r.Context()
	name, ok := mux.Vars(r)["family"]
	if !ok {
		if err := h.services.Tokens.Clear(ctx); err != nil {
			h.sendJSONError(w, r, err)
			return
		}
		h.logger.WithContext(ctx).Info("Cleared all cached tokens")
		h.sendResult(w, usps.ToResult(map[string]interface{}{"cleared": "all"}, nil))
		return
	}

	family, err := usps.ParseFamily(name)
	if err != nil {
		h.sendJSONError(w, r, err)
		return
	}
	if err := h.services.Tokens.Invalidate(ctx, string(family)); err != nil {
		h.sendJSONError(w, r, err)
		return
	}
	h.logger.WithContext(ctx).Info("Cleared cached token", logging.String("family", string(family)))
	h.sendResult(w, usps.ToResult(map[string]interface{}{"cleared": string(family)}, nil))
}
