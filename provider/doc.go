// Package provider holds the gateway-independent parts of the payment client:
// typed field collections, field conditions, the gateway registry and the
// service that resolves configured gateway clients.
//
// # Collections
//
// A Schema names a collection, the endpoint it is sent to and its fields.
// A Collection stores values for a schema and rejects names it does not declare:
//
//	schema := provider.MustNewSchema("payinitparameter", "https://www.saferpay.com/api",
//	    provider.Field{Name: "AMOUNT", Condition: "n[..8]"},
//	    provider.Field{Name: "CURRENCY", Condition: "a[3]"},
//	)
//
//	c := provider.NewCollection(schema)
//	_ = c.Set("AMOUNT", 1000)
//	_ = c.Set("CURRENCY", "CHF")
//	err := c.Validate() // nil
//
// # Conditions
//
// A condition is a character class followed by a length: a (letters), n (digits),
// s (specials), or combinations such as an and ans. The length is exact ("a[3]"),
// a maximum ("n[..8]") or a range ("an[2..10]"). Conditions are compiled once and cached.
// The same syntax is available to struct validation through the "saferpay" tag:
//
//	type Order struct {
//	    Currency string `validate:"required,saferpay=a[3]"`
//	}
//
// # Registry
//
// Gateway packages register a factory, their schemas and their configuration fields in init:
//
//	import _ "github.com/horo42/saferpay/provider/saferpay"
//
//	gw, err := provider.CreateGateway("saferpay", conf, transport, log)
//
// # Payment Service
//
// PaymentService builds gateway clients from a ConfigSource on first use and caches them
// per provider and environment until Invalidate is called:
//
//	service := provider.NewPaymentService(nil, providerConfig, nil, logger.GetGlobalLogger())
//	answer, err := service.CreatePayInit(ctx, "saferpay", params)
//
// # Errors
//
// Operations return ErrPrecondition, ErrNoPasswordGiven, ErrSchemaViolation or one of
// *ValidationError, *TransportError, *GatewayError and *MalformedResponseError.
// Use errors.Is and errors.As to tell them apart.
package provider
