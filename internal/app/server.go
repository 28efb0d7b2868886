package app

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"usps-gateway/internal/common/logging"
	"usps-gateway/internal/handlers"
	"usps-gateway/internal/server"
)

// Handler builds the routed HTTP handler over the app's clients
func (app *App) Handler() http.Handler {
	h := handlers.New(app.Config, handlers.Services{
		Addresses:     app.Addresses,
		Prices:        app.Prices,
		Labels:        app.Labels,
		International: app.International,
		Payments:      app.Payments,
		Tokens:        app.Tokens,
		Breakers:      app.Options.Breakers,
	}, app.Logger.WithFields(logging.Field{Key: "component", Value: "handlers"}))

	router := mux.NewRouter()
	SetupRoutes(router, h)
	return router
}

// RunServer creates the HTTP server with all handlers configured
func (app *App) RunServer() *server.Server {
	// Leave room for every retry of a slow upstream call
	writeTimeout := app.Config.Timeout*time.Duration(app.Config.RetryAttempts) + 10*time.Second
	return server.New(app.Handler(), app.Config.Port, writeTimeout)
}
