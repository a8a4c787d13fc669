package v1

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/horo42/saferpay/handler"
	"github.com/horo42/saferpay/infra/config"
	"github.com/horo42/saferpay/provider"
)

// Dependencies are the services the v1 handlers run on
type Dependencies struct {
	PaymentService *provider.PaymentService
	ProviderConfig *config.ProviderConfig
	Registry       *provider.ProviderRegistry // nil means provider.DefaultRegistry
	LogStore       handler.LogStore           // nil disables the log endpoints
	Validate       *validator.Validate        // nil means config.App().Validator
}

// Routes registers all API routes
func Routes(r chi.Router, deps Dependencies) {
	validate := deps.Validate
	if validate == nil {
		validate = config.App().Validator
	}

	paymentHandler := handler.NewPaymentHandler(deps.PaymentService, validate)
	configHandler := handler.NewConfigHandler(deps.ProviderConfig, deps.PaymentService, deps.Registry)
	logsHandler := handler.NewLogsHandler(deps.LogStore)

	r.Route("/payments/{provider}", func(r chi.Router) {
		r.Post("/init", paymentHandler.InitPayment)
		r.Post("/init/billpay", paymentHandler.InitBillpayPayment)
		r.Post("/confirm", paymentHandler.ConfirmPayment)
		r.Post("/complete", paymentHandler.CompletePayment)
	})

	r.Route("/config/{provider}", func(r chi.Router) {
		r.Get("/", configHandler.GetConfig)
		r.Post("/", configHandler.SetConfig)
		r.Delete("/", configHandler.DeleteConfig)
		r.Get("/fields", configHandler.GetFields)
	})

	r.Route("/logs/{provider}", func(r chi.Router) {
		r.Get("/", logsHandler.ListLogs)
		r.Get("/errors", logsHandler.GetErrorLogs)
		r.Get("/stats", logsHandler.GetLogStats)
		r.Get("/transactions/{transactionID}", logsHandler.GetTransactionLogs)
	})
}
