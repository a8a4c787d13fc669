package saferpay

import "github.com/horo42/saferpay/provider"

// Billpay provider sets
const (
	ProviderSetBillpayLSV     = 1218
	ProviderSetBillpayInvoice = 1219
)

// Billpay legal forms, required unless the gender is "c"
const (
	LegalFormGmbH = "gmbh"
	LegalFormAG   = "ag"
	LegalFormMisc = "misc"
)

// Billpay schema names
const (
	BillpayPayInitParameterName     = "payinitparameter_billpay"
	BillpayPayCompleteParameterName = "paycompleteparameter_billpay"
)

var (
	// BillpayPayInitParameterSchema adds the Billpay invoice and direct debit fields to pay init
	BillpayPayInitParameterSchema = PayInitParameterSchema.MustExtend(BillpayPayInitParameterName, "",
		provider.Field{Name: "LEGALFORM", Condition: "a[..4]"},
		provider.Field{Name: "ADDRESSADDITION", Condition: "an[..50]"},
		provider.Field{Name: "DATEOFBIRTH", Condition: "n[8]"}, // YYYYMMDD
		provider.Field{Name: "DELIVERY_GENDER", Condition: "a[1]"},
		provider.Field{Name: "DELIVERY_FIRSTNAME", Condition: "ans[..50]"},
		provider.Field{Name: "DELIVERY_LASTNAME", Condition: "ans[..50]"},
		provider.Field{Name: "DELIVERY_STREET", Condition: "ans[..50]"},
		provider.Field{Name: "DELIVERY_ADDRESSADDITION", Condition: "an[..50]"},
		provider.Field{Name: "DELIVERY_ZIP", Condition: "an[..10]"},
		provider.Field{Name: "DELIVERY_CITY", Condition: "ans[..50]"},
		provider.Field{Name: "DELIVERY_COUNTRY", Condition: "a[2]"}, // ISO 3166
		provider.Field{Name: "DELIVERY_PHONE", Condition: "ns[..50]"},
	)

	// BillpayPayCompleteParameterSchema adds the payment delay in days to pay complete
	BillpayPayCompleteParameterSchema = PayCompleteParameterSchema.MustExtend(BillpayPayCompleteParameterName, "",
		provider.Field{Name: "POB_DELAY", Condition: "n[..3]"},
	)
)

// NewBillpayPayInitParameter creates an empty Billpay pay init collection
func NewBillpayPayInitParameter() *provider.Collection {
	return provider.NewCollection(BillpayPayInitParameterSchema)
}

// NewBillpayPayCompleteParameter creates an empty Billpay complete collection
func NewBillpayPayCompleteParameter() *provider.Collection {
	return provider.NewCollection(BillpayPayCompleteParameterSchema)
}
