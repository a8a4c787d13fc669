package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/horo42/saferpay/handler"
	"github.com/horo42/saferpay/infra/config"
	"github.com/horo42/saferpay/infra/middle"
	"github.com/horo42/saferpay/infra/response"
	v1 "github.com/horo42/saferpay/router/v1"

	// Import for side-effect registration
	_ "github.com/horo42/saferpay/provider/saferpay"
)

// Public paths skip API key authentication
var publicPaths = []string{"/health", "/callback/"}

// Routes registers the health check, the gateway callbacks and the authenticated /v1 API
func Routes(r chi.Router, deps v1.Dependencies) {
	r.Use(middle.AuthMiddleware(publicPaths...))

	validate := deps.Validate
	if validate == nil {
		validate = config.App().Validator
	}

	healthHandler := handler.NewHealthHandler(deps.Registry, deps.ProviderConfig, deps.PaymentService, deps.LogStore)
	paymentHandler := handler.NewPaymentHandler(deps.PaymentService, validate)

	r.Get("/health", healthHandler.CheckHealth)

	// The gateway posts DATA and SIGNATURE here, or appends them to the redirect
	r.Get("/callback/{provider}", paymentHandler.HandleCallback)
	r.Post("/callback/{provider}", paymentHandler.HandleCallback)

	r.Route("/v1", func(r chi.Router) {
		v1.Routes(r, deps)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "Not Found", nil)
	})
}
