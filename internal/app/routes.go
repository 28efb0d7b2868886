package app

import (
	"github.com/gorilla/mux"

	"usps-gateway/internal/handlers"
	"usps-gateway/internal/middleware"
)

// SetupRoutes configures all HTTP routes for the application
func SetupRoutes(router *mux.Router, h *handlers.Handlers) {
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.LoggingMiddleware)

	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	// Diagnostics
	api.HandleFunc("/status", h.GetStatus).Methods("GET")
	api.HandleFunc("/config", h.GetConfig).Methods("GET")
	api.HandleFunc("/tokens", h.ClearTokens).Methods("DELETE")
	api.HandleFunc("/tokens/{family}", h.ClearTokens).Methods("DELETE")

	// Addresses
	api.HandleFunc("/addresses/standardize", h.StandardizeAddress).Methods("GET")
	api.HandleFunc("/addresses/city-state/{zip}", h.LookupCityState).Methods("GET")
	api.HandleFunc("/addresses/zipcode", h.LookupZIPCode).Methods("GET")
	api.HandleFunc("/addresses/batch", h.ValidateAddresses).Methods("POST")

	// Prices
	api.HandleFunc("/prices/base-rates", h.SearchBaseRates).Methods("POST")
	api.HandleFunc("/prices/extra-service-rates", h.SearchExtraServiceRates).Methods("POST")
	api.HandleFunc("/prices/total-rates", h.SearchTotalRates).Methods("POST")
	api.HandleFunc("/prices/base-rates-list", h.SearchBaseRatesList).Methods("POST")
	api.HandleFunc("/prices/letter-rates", h.SearchLetterRates).Methods("POST")

	// Domestic labels
	api.HandleFunc("/labels", h.CreateLabel).Methods("POST")
	api.HandleFunc("/labels/return", h.CreateReturnLabel).Methods("POST")
	api.HandleFunc("/labels/{trackingNumber}", h.EditLabel).Methods("PATCH")
	api.HandleFunc("/labels/{trackingNumber}", h.CancelLabel).Methods("DELETE")
	api.HandleFunc("/labels/{trackingNumber}/reprint", h.ReprintLabel).Methods("POST")

	// International labels
	api.HandleFunc("/international-labels", h.CreateInternationalLabel).Methods("POST")
	api.HandleFunc("/international-labels/{trackingNumber}", h.CancelInternationalLabel).Methods("DELETE")
	api.HandleFunc("/international-labels/{trackingNumber}/reprint", h.ReprintInternationalLabel).Methods("POST")

	// Payments
	api.HandleFunc("/payments/authorize", h.AuthorizePayment).Methods("POST")
	api.HandleFunc("/payments/accounts/{accountNumber}", h.GetPaymentAccount).Methods("GET")
}
