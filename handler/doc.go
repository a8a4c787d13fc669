// Package handler provides the HTTP handlers of the Saferpay bridge.
//
//   - PaymentHandler: pay init, Billpay pay init, confirm verification, callbacks and complete
//   - ConfigHandler: provider configuration and its field descriptions
//   - LogsHandler: gateway call logs stored in OpenSearch
//   - HealthHandler: service, provider and system health
//
// Handlers answer with the response.Response envelope. Gateway client errors map to
// status codes as follows:
//
//	400  precondition, missing spPassword, schema or condition violations
//	404  unknown provider
//	422  the gateway answered with an ERROR
//	502  transport failure or unreadable gateway answer
//	503  provider not configured
//	504  gateway timeout
package handler
