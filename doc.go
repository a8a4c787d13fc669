// Package saferpay is a client and HTTP bridge for the Saferpay payment gateway.
//
// It covers the payment page flow of Saferpay: a merchant initializes a payment,
// the buyer pays on the hosted page, the gateway confirms the payment back to the
// merchant and the merchant completes it by settling, cancelling or closing the batch.
//
// # Overview
//
//	┌─────────────────┐    ┌─────────────────┐    ┌─────────────────┐
//	│                 │    │                 │    │                 │
//	│   Merchant      │◄──►│  saferpay       │◄──►│   Saferpay      │
//	│   Shop          │    │  (bridge)       │    │   Gateway       │
//	│                 │    │                 │    │                 │
//	└─────────────────┘    └─────────────────┘    └─────────────────┘
//
// The gateway fields travel in typed collections. Each collection has a fixed set
// of field names, and most fields carry a condition such as "an[..50]" (at most 50
// alphanumeric characters) that is checked before a request leaves the bridge.
//
// # Library Usage
//
//	import (
//	    "github.com/horo42/saferpay/provider"
//	    "github.com/horo42/saferpay/provider/saferpay"
//	)
//
//	client, err := saferpay.New(saferpay.Options{
//	    Transport: provider.NewProviderHTTPClient(provider.CreateHTTPClientConfig("", false, 0)),
//	    Config: saferpay.Config{
//	        CustomerID:  "401860",
//	        TerminalID:  "17795278",
//	        APIUsername: "API_401860_80003225",
//	        APIPassword: "C-y*bv8346Ze5-T8",
//	    },
//	})
//
//	params, err := saferpay.PayInitRequest{
//	    Amount:      1250,
//	    Currency:    "CHF",
//	    Description: "Order 42",
//	    SuccessLink: "https://shop.example.com/success",
//	    FailLink:    "https://shop.example.com/fail",
//	}.Collection()
//
//	answer, err := client.CreatePayInit(ctx, params)
//
//	// later, with the DATA and SIGNATURE the gateway sent back
//	confirmed, err := client.VerifyPayConfirm(ctx, data, signature, nil)
//	completed, err := client.PayCompleteV2(ctx, confirmed, saferpay.ActionSettlement, "", nil, nil)
//
// # Bridge Usage
//
// cmd/main.go serves the same operations over HTTP:
//
//	POST /v1/payments/saferpay/init
//	POST /v1/payments/saferpay/init/billpay
//	POST /v1/payments/saferpay/confirm
//	POST /v1/payments/saferpay/complete
//	GET  /callback/saferpay          (public, DATA and SIGNATURE from the gateway)
//	GET  /v1/logs/saferpay           (OpenSearch gateway logs)
//	GET  /v1/config/saferpay/fields
//	GET  /health
//
// Every /v1 request needs "Authorization: Bearer <API_KEY>".
//
// # Configuration
//
// The bridge reads its settings from the environment, optionally through a .env file:
//
//	APP_PORT=9999
//	API_KEY=your-api-key
//	SAFERPAY_CUSTOMER_ID=401860
//	SAFERPAY_TERMINAL_ID=17795278
//	SAFERPAY_API_USERNAME=API_401860_80003225
//	SAFERPAY_API_PASSWORD=...
//	SAFERPAY_ACCOUNT_ID=99867-94913159
//	SAFERPAY_ENVIRONMENT=sandbox
//	ENABLE_OPENSEARCH_LOGGING=true
//	OPENSEARCH_URL=http://localhost:9200
//	CONFIG_DB_PATH=./data/saferpay.db   (keeps configs set through /v1/config)
package saferpay
