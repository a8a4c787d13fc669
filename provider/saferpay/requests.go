package saferpay

import (
	"fmt"

	"github.com/horo42/saferpay/infra/config"
	"github.com/horo42/saferpay/provider"
)

// PayInitRequest is the typed form of a pay init collection
type PayInitRequest struct {
	AccountID   string `json:"accountId,omitempty" validate:"omitempty,saferpay=ns[..15]"`
	Amount      int64  `json:"amount" validate:"required,gt=0,lte=99999999"`
	Currency    string `json:"currency" validate:"required,saferpay=a[3]"`
	Description string `json:"description" validate:"required,max=1000"`
	OrderID     string `json:"orderId,omitempty" validate:"omitempty,saferpay=ans[..80]"`
	SuccessLink string `json:"successLink" validate:"required,url"`
	FailLink    string `json:"failLink" validate:"required,url"`
	BackLink    string `json:"backLink,omitempty" validate:"omitempty,url"`
	NotifyURL   string `json:"notifyUrl,omitempty" validate:"omitempty,url"`
	LangID      string `json:"langId,omitempty" validate:"omitempty,saferpay=a[2]"`
	Email       string `json:"email,omitempty" validate:"omitempty,email,saferpay=ans[..50]"`
}

// Validate checks r with the shared validator
func (r PayInitRequest) Validate() error {
	return config.App().Validator.Struct(r)
}

// Fields returns the gateway field values of r, omitting empty optional fields
func (r PayInitRequest) Fields() map[string]any {
	fields := map[string]any{
		"AMOUNT":      r.Amount,
		"CURRENCY":    r.Currency,
		"DESCRIPTION": r.Description,
		"SUCCESSLINK": r.SuccessLink,
		"FAILLINK":    r.FailLink,
	}
	optional := map[string]string{
		"ACCOUNTID": r.AccountID,
		"ORDERID":   r.OrderID,
		"BACKLINK":  r.BackLink,
		"NOTIFYURL": r.NotifyURL,
		"LANGID":    r.LangID,
		"EMAIL":     r.Email,
	}
	for k, v := range optional {
		if v != "" {
			fields[k] = v
		}
	}
	return fields
}

// Collection validates r and returns it as a pay init collection
func (r PayInitRequest) Collection() (*provider.Collection, error) {
	return buildCollection(r, NewPayInitParameter(), r.Fields())
}

// BillpayPayInitRequest adds the Billpay buyer and delivery details to a pay init
type BillpayPayInitRequest struct {
	PayInitRequest

	ProviderSet             int    `json:"providerSet" validate:"required,oneof=1218 1219"`
	LegalForm               string `json:"legalForm,omitempty" validate:"omitempty,oneof=gmbh ag misc"`
	AddressAddition         string `json:"addressAddition,omitempty" validate:"omitempty,saferpay=an[..50]"`
	DateOfBirth             string `json:"dateOfBirth,omitempty" validate:"omitempty,saferpay=n[8]"`
	DeliveryGender          string `json:"deliveryGender,omitempty" validate:"omitempty,oneof=f m c"`
	DeliveryFirstname       string `json:"deliveryFirstname,omitempty" validate:"omitempty,saferpay=ans[..50]"`
	DeliveryLastname        string `json:"deliveryLastname,omitempty" validate:"omitempty,saferpay=ans[..50]"`
	DeliveryStreet          string `json:"deliveryStreet,omitempty" validate:"omitempty,saferpay=ans[..50]"`
	DeliveryAddressAddition string `json:"deliveryAddressAddition,omitempty" validate:"omitempty,saferpay=an[..50]"`
	DeliveryZip             string `json:"deliveryZip,omitempty" validate:"omitempty,saferpay=an[..10]"`
	DeliveryCity            string `json:"deliveryCity,omitempty" validate:"omitempty,saferpay=ans[..50]"`
	DeliveryCountry         string `json:"deliveryCountry,omitempty" validate:"omitempty,saferpay=a[2]"`
	DeliveryPhone           string `json:"deliveryPhone,omitempty" validate:"omitempty,saferpay=ns[..50]"`
}

// Validate checks r with the shared validator
func (r BillpayPayInitRequest) Validate() error {
	return config.App().Validator.Struct(r)
}

// Collection validates r and returns it as a Billpay pay init collection
func (r BillpayPayInitRequest) Collection() (*provider.Collection, error) {
	fields := r.PayInitRequest.Fields()
	fields["PROVIDERSET"] = fmt.Sprint(r.ProviderSet)

	optional := map[string]string{
		"LEGALFORM":                r.LegalForm,
		"ADDRESSADDITION":          r.AddressAddition,
		"DATEOFBIRTH":              r.DateOfBirth,
		"DELIVERY_GENDER":          r.DeliveryGender,
		"DELIVERY_FIRSTNAME":       r.DeliveryFirstname,
		"DELIVERY_LASTNAME":        r.DeliveryLastname,
		"DELIVERY_STREET":          r.DeliveryStreet,
		"DELIVERY_ADDRESSADDITION": r.DeliveryAddressAddition,
		"DELIVERY_ZIP":             r.DeliveryZip,
		"DELIVERY_CITY":            r.DeliveryCity,
		"DELIVERY_COUNTRY":         r.DeliveryCountry,
		"DELIVERY_PHONE":           r.DeliveryPhone,
	}
	for k, v := range optional {
		if v != "" {
			fields[k] = v
		}
	}

	return buildCollection(r, NewBillpayPayInitParameter(), fields)
}

type validatable interface {
	Validate() error
}

func buildCollection(r validatable, c *provider.Collection, fields map[string]any) (*provider.Collection, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("saferpay: %s: %w", c.Name(), err)
	}
	if err := c.Merge(fields); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
