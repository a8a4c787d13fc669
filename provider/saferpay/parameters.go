package saferpay

import "github.com/horo42/saferpay/provider"

const (
	// TestAccountPrefix marks the public test accounts, e.g. 99867-94913159
	TestAccountPrefix = "99867-"

	// TestAccountID is the public Saferpay test account
	TestAccountID = "99867-94913159"

	// TestAccountSPPassword is the fixed spPassword of the public test accounts
	TestAccountSPPassword = "XAjc3Kna"
)

// Complete actions
const (
	ActionSettlement = "Settlement"
	ActionCancel     = "Cancel"
	ActionCloseBatch = "CloseBatch"
)

// Schema names
const (
	PayInitParameterName     = "payinitparameter"
	PayConfirmParameterName  = "payconfirmparameter"
	PayCompleteParameterName = "paycompleteparameter"
	PayCompleteResponseName  = "paycompleteresponse"
)

const (
	productionHost = "https://www.saferpay.com"
	sandboxHost    = "https://test.saferpay.com"

	apiBaseURL        = productionHost + "/api"
	payInitPath       = "/Payment/v1/PaymentPage/Initialize"
	verifyConfirmURL  = productionHost + "/hosting/VerifyPayConfirm.asp"
	payCompleteV2URL  = productionHost + "/hosting/PayCompleteV2.asp"
	completePrefixLen = 3
)

var (
	// PayInitParameterSchema describes a payment page initialization
	PayInitParameterSchema = provider.MustNewSchema(PayInitParameterName, apiBaseURL,
		provider.Field{Name: "ACCOUNTID", Condition: "ns[..15]"},
		provider.Field{Name: "AMOUNT", Condition: "n[..8]"},
		provider.Field{Name: "CURRENCY", Condition: "a[3]"},
		provider.Field{Name: "DESCRIPTION"},
		provider.Field{Name: "ORDERID", Condition: "ans[..80]"},
		provider.Field{Name: "VTCONFIG", Condition: "ans[..20]"},
		provider.Field{Name: "SUCCESSLINK"},
		provider.Field{Name: "FAILLINK"},
		provider.Field{Name: "BACKLINK"},
		provider.Field{Name: "NOTIFYURL"},
		provider.Field{Name: "AUTOCLOSE", Condition: "n[..2]"},
		provider.Field{Name: "CCNAME", Condition: "a[..3]"},
		provider.Field{Name: "NOTIFYADDRESS", Condition: "ans[..50]"},
		provider.Field{Name: "USERNOTIFY", Condition: "ans[..50]"},
		provider.Field{Name: "LANGID", Condition: "a[2]"},
		provider.Field{Name: "SHOWLANGUAGES", Condition: "a[..3]"},
		provider.Field{Name: "PAYMENTMETHODS", Condition: "ns[..100]"},
		provider.Field{Name: "DURATION", Condition: "n[14]"},
		provider.Field{Name: "CARDREFID", Condition: "ans[..40]"},
		provider.Field{Name: "DELIVERY", Condition: "a[..3]"},
		provider.Field{Name: "PROVIDERSET", Condition: "ns[..100]"},
		provider.Field{Name: "COMPANY", Condition: "ans[..50]"},
		provider.Field{Name: "GENDER", Condition: "a[1]"},
		provider.Field{Name: "FIRSTNAME", Condition: "ans[..50]"},
		provider.Field{Name: "LASTNAME", Condition: "ans[..50]"},
		provider.Field{Name: "STREET", Condition: "ans[..50]"},
		provider.Field{Name: "ZIP", Condition: "an[..10]"},
		provider.Field{Name: "CITY", Condition: "ans[..50]"},
		provider.Field{Name: "COUNTRY", Condition: "a[2]"},
		provider.Field{Name: "EMAIL", Condition: "ans[..50]"},
		provider.Field{Name: "PHONE", Condition: "ns[..20]"},
	)

	// PayConfirmParameterSchema holds the attributes of a confirm message
	PayConfirmParameterSchema = provider.MustNewSchema(PayConfirmParameterName, verifyConfirmURL,
		provider.Field{Name: "MSGTYPE"},
		provider.Field{Name: "VTVERIFY"},
		provider.Field{Name: "KEYID"},
		provider.Field{Name: "ID"},
		provider.Field{Name: "TOKEN"},
		provider.Field{Name: "ACCOUNTID"},
		provider.Field{Name: "AMOUNT"},
		provider.Field{Name: "CURRENCY"},
		provider.Field{Name: "CARDREFID"},
		provider.Field{Name: "SCDMASK"},
		provider.Field{Name: "EXP"},
		provider.Field{Name: "PROVIDERID"},
		provider.Field{Name: "PROVIDERNAME"},
		provider.Field{Name: "ORDERID"},
		provider.Field{Name: "IP"},
		provider.Field{Name: "IPCOUNTRY"},
		provider.Field{Name: "CCCOUNTRY"},
		provider.Field{Name: "MPI_LIABILITYSHIFT"},
		provider.Field{Name: "ECI"},
		provider.Field{Name: "XID"},
		provider.Field{Name: "CAVV"},
	)

	// PayCompleteParameterSchema describes a settlement, cancel or batch close
	PayCompleteParameterSchema = provider.MustNewSchema(PayCompleteParameterName, payCompleteV2URL,
		provider.Field{Name: "ID"},
		provider.Field{Name: "AMOUNT", Condition: "n[..8]"},
		provider.Field{Name: "ACCOUNTID", Condition: "ns[..15]"},
		provider.Field{Name: "ACTION", Condition: "a[..10]"},
	)

	// PayCompleteResponseSchema holds the attributes of a complete answer
	PayCompleteResponseSchema = provider.MustNewSchema(PayCompleteResponseName, payCompleteV2URL,
		provider.Field{Name: "MSGTYPE"},
		provider.Field{Name: "RESULT"},
		provider.Field{Name: "MESSAGE"},
		provider.Field{Name: "AUTHMESSAGE"},
		provider.Field{Name: "ID"},
		provider.Field{Name: "TOKEN"},
		provider.Field{Name: "ACCOUNTID"},
		provider.Field{Name: "AMOUNT"},
		provider.Field{Name: "CURRENCY"},
		provider.Field{Name: "ACTION"},
	)
)

// NewPayInitParameter creates an empty pay init collection
func NewPayInitParameter() *provider.Collection {
	return provider.NewCollection(PayInitParameterSchema)
}

// NewPayConfirmParameter creates an empty confirm collection
func NewPayConfirmParameter() *provider.Collection {
	return provider.NewCollection(PayConfirmParameterSchema)
}

// NewPayCompleteParameter creates an empty complete collection
func NewPayCompleteParameter() *provider.Collection {
	return provider.NewCollection(PayCompleteParameterSchema)
}

// NewPayCompleteResponse creates an empty complete response collection
func NewPayCompleteResponse() *provider.Collection {
	return provider.NewCollection(PayCompleteResponseSchema)
}
