package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/horo42/saferpay/infra/response"
	"github.com/horo42/saferpay/provider"
	"github.com/horo42/saferpay/provider/saferpay"
)

const gatewayTimeout = 30 * time.Second

// PaymentServiceInterface defines the interface for payment operations
type PaymentServiceInterface interface {
	NewCollection(name string) (*provider.Collection, error)
	CreatePayInit(ctx context.Context, providerName string, params *provider.Collection) (string, error)
	VerifyPayConfirm(ctx context.Context, providerName, xmlBody, signature string, out *provider.Collection) (*provider.Collection, error)
	PayComplete(ctx context.Context, providerName string, confirmed *provider.Collection, action, spPassword string, completeParams, responseOut *provider.Collection) (*provider.Collection, error)
}

// PaymentHandler handles payment related HTTP requests
type PaymentHandler struct {
	paymentService PaymentServiceInterface
	validate       *validator.Validate
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService PaymentServiceInterface, validate *validator.Validate) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		validate:       validate,
	}
}

// ConfirmRequest carries a confirm message the gateway delivered to the merchant
type ConfirmRequest struct {
	Data      string `json:"data" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// CompleteRequest settles, cancels or closes a confirmed transaction
type CompleteRequest struct {
	Confirmed  map[string]string `json:"confirmed" validate:"required"`
	Action     string            `json:"action,omitempty" validate:"omitempty,oneof=Settlement Cancel CloseBatch"`
	SPPassword string            `json:"spPassword,omitempty"`
	POBDelay   *int              `json:"pobDelay,omitempty" validate:"omitempty,gte=0,lte=999"`
}

// InitPayment initializes a payment page
func (h *PaymentHandler) InitPayment(w http.ResponseWriter, r *http.Request) {
	var req saferpay.PayInitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	h.initPayment(w, r, req.Collection)
}

// InitBillpayPayment initializes a Billpay invoice or direct debit payment page
func (h *PaymentHandler) InitBillpayPayment(w http.ResponseWriter, r *http.Request) {
	var req saferpay.BillpayPayInitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	h.initPayment(w, r, req.Collection)
}

func (h *PaymentHandler) initPayment(w http.ResponseWriter, r *http.Request, build func() (*provider.Collection, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), gatewayTimeout)
	defer cancel()

	// build runs the request's struct validation and the collection conditions
	params, err := build()
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Validation error", err)
		return
	}

	providerName := chi.URLParam(r, "provider")

	raw, err := h.paymentService.CreatePayInit(ctx, providerName, params)
	if err != nil {
		h.gatewayError(w, "Payment initialization failed", err)
		return
	}

	var gatewayResponse any = raw
	if json.Valid([]byte(raw)) {
		gatewayResponse = json.RawMessage(raw)
	}

	response.Success(w, http.StatusOK, "Payment initialized", map[string]any{
		"provider": providerName,
		"response": gatewayResponse,
	})
}

// ConfirmPayment verifies a confirm message forwarded by the merchant
func (h *PaymentHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Validation error", err)
		return
	}

	h.verify(w, r, req.Data, req.Signature)
}

// HandleCallback verifies a confirm message the gateway posts or redirects with DATA and SIGNATURE
func (h *PaymentHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid form data", err)
		return
	}

	data := r.Form.Get("DATA")
	signature := r.Form.Get("SIGNATURE")
	if data == "" || signature == "" {
		response.Error(w, http.StatusBadRequest, "DATA and SIGNATURE are required", nil)
		return
	}

	h.verify(w, r, data, signature)
}

func (h *PaymentHandler) verify(w http.ResponseWriter, r *http.Request, data, signature string) {
	ctx, cancel := context.WithTimeout(r.Context(), gatewayTimeout)
	defer cancel()

	providerName := chi.URLParam(r, "provider")

	confirmed, err := h.paymentService.VerifyPayConfirm(ctx, providerName, data, signature, nil)
	if err != nil {
		h.gatewayError(w, "Payment confirmation failed", err)
		return
	}

	response.Success(w, http.StatusOK, "Payment confirmed", confirmed.StringData())
}

// CompletePayment completes a confirmed transaction
func (h *PaymentHandler) CompletePayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), gatewayTimeout)
	defer cancel()

	var req CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Validation error", err)
		return
	}

	providerName := chi.URLParam(r, "provider")

	confirmed, err := h.paymentService.NewCollection(saferpay.PayConfirmParameterName)
	if err != nil {
		h.gatewayError(w, "Payment completion failed", err)
		return
	}
	values := make(map[string]any, len(req.Confirmed))
	for k, v := range req.Confirmed {
		values[k] = v
	}
	if err := confirmed.Merge(values); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid confirmed fields", err)
		return
	}

	var completeParams *provider.Collection
	if req.POBDelay != nil {
		if completeParams, err = h.paymentService.NewCollection(saferpay.BillpayPayCompleteParameterName); err != nil {
			h.gatewayError(w, "Payment completion failed", err)
			return
		}
		if err := completeParams.Set("POB_DELAY", *req.POBDelay); err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid payment delay", err)
			return
		}
	}

	completed, err := h.paymentService.PayComplete(ctx, providerName, confirmed, req.Action, req.SPPassword, completeParams, nil)
	if err != nil {
		h.gatewayError(w, "Payment completion failed", err)
		return
	}

	response.Success(w, http.StatusOK, "Payment completed", completed.StringData())
}

func (h *PaymentHandler) gatewayError(w http.ResponseWriter, message string, err error) {
	response.Error(w, statusForError(err), message, err)
}

// statusForError maps gateway client errors onto HTTP status codes
func statusForError(err error) int {
	var (
		validationErrs validator.ValidationErrors
		fieldErr       *provider.ValidationError
		gatewayErr     *provider.GatewayError
		transportErr   *provider.TransportError
		malformedErr   *provider.MalformedResponseError
	)

	switch {
	case errors.Is(err, provider.ErrUnknownProvider):
		return http.StatusNotFound
	case errors.Is(err, provider.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, provider.ErrPrecondition),
		errors.Is(err, provider.ErrNoPasswordGiven),
		errors.Is(err, provider.ErrSchemaViolation),
		errors.As(err, &validationErrs),
		errors.As(err, &fieldErr):
		return http.StatusBadRequest
	case errors.As(err, &gatewayErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &transportErr), errors.As(err, &malformedErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
