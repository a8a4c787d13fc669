package saferpay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/horo42/saferpay/infra/logger"
	"github.com/horo42/saferpay/infra/opensearch"
	"github.com/horo42/saferpay/provider"
)

// Options configures a Client
type Options struct {
	Transport provider.Transport
	Logger    provider.Logger
	Config    Config
}

// Client talks to the Saferpay payment page and hosting interfaces
type Client struct {
	transport provider.Transport
	log       provider.Logger
	config    Config
}

// New creates a client. A transport is required; a nil logger discards output.
func New(opts Options) (*Client, error) {
	if opts.Transport == nil {
		return nil, provider.ErrTransportNotConfigured
	}

	log := opts.Logger
	if log == nil {
		log = provider.NopLogger{}
	}

	return &Client{
		transport: opts.Transport,
		log:       log,
		config:    opts.Config.withDefaults(),
	}, nil
}

// IsTestAccountID reports whether accountID belongs to the public test accounts
func IsTestAccountID(accountID string) bool {
	return strings.HasPrefix(accountID, TestAccountPrefix)
}

type initRequest struct {
	RequestHeader requestHeader `json:"RequestHeader"`
	TerminalID    string        `json:"TerminalId"`
	Payment       initPayment   `json:"Payment"`
	ReturnURLs    returnURLs    `json:"ReturnUrls"`
}

type requestHeader struct {
	SpecVersion    string `json:"SpecVersion"`
	CustomerID     string `json:"CustomerId"`
	RequestID      string `json:"RequestId"`
	RetryIndicator int    `json:"RetryIndicator"`
}

type initPayment struct {
	Amount      amount `json:"Amount"`
	OrderID     string `json:"OrderId"`
	Description string `json:"Description"`
}

type amount struct {
	Value        any    `json:"Value"`
	CurrencyCode string `json:"CurrencyCode"`
}

type returnURLs struct {
	Success string `json:"Success"`
	Fail    string `json:"Fail"`
}

// CreatePayInit initializes a payment page and returns the gateway's raw answer
func (c *Client) CreatePayInit(ctx context.Context, params *provider.Collection) (string, error) {
	const op = "CreatePayInit"

	if params == nil {
		err := fmt.Errorf("%w: pay init parameters are required", provider.ErrSchemaViolation)
		c.critical(op, "missing pay init parameters", err)
		return "", err
	}
	if err := params.Validate(); err != nil {
		c.critical(op, "invalid pay init parameters", err)
		return "", err
	}

	amountValue, _ := params.Get("AMOUNT")
	orderID := params.GetString("ORDERID")
	if orderID == "" {
		orderID = c.config.DefaultOrderID
	}

	payload, err := json.Marshal(initRequest{
		RequestHeader: requestHeader{
			SpecVersion:    c.config.SpecVersion,
			CustomerID:     c.config.CustomerID,
			RequestID:      uuid.New().String(),
			RetryIndicator: 0,
		},
		TerminalID: c.config.TerminalID,
		Payment: initPayment{
			Amount: amount{
				Value:        amountValue,
				CurrencyCode: params.GetString("CURRENCY"),
			},
			OrderID:     orderID,
			Description: params.GetString("DESCRIPTION"),
		},
		ReturnURLs: returnURLs{
			Success: params.GetString("SUCCESSLINK"),
			Fail:    params.GetString("FAILLINK"),
		},
	})
	if err != nil {
		c.critical(op, "failed to encode pay init request", err)
		return "", fmt.Errorf("saferpay: failed to encode pay init request: %w", err)
	}

	headers := map[string]string{
		"Content-Type":  "application/json; charset=utf-8",
		"Accept":        "application/json",
		"Authorization": c.basicAuth(),
	}

	body, err := c.request(ctx, op, c.apiURL(params.Endpoint())+payInitPath, payload, headers)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// VerifyPayConfirm copies the attributes of the confirm message into out and has the
// gateway verify it against signature. A nil out gets a fresh confirm collection.
func (c *Client) VerifyPayConfirm(ctx context.Context, xmlBody, signature string, out *provider.Collection) (*provider.Collection, error) {
	const op = "VerifyPayConfirm"

	if out == nil {
		out = NewPayConfirmParameter()
	}

	if err := c.fillFromXML(op, out, xmlBody); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("DATA", xmlBody)
	form.Set("SIGNATURE", signature)

	// The gateway's acknowledgement carries nothing beyond what request already checks
	if _, err := c.request(ctx, op, c.hostingURL(out.Endpoint()), []byte(form.Encode()), formHeaders()); err != nil {
		return nil, err
	}

	return out, nil
}

// PayCompleteV2 settles, cancels or closes the transaction confirmed in confirmed.
// completeParams and responseOut may be nil. Test accounts always use TestAccountSPPassword;
// live accounts need spPassword, or Config.SPPassword, for any action but settlement.
func (c *Client) PayCompleteV2(ctx context.Context, confirmed *provider.Collection, action, spPassword string, completeParams, responseOut *provider.Collection) (*provider.Collection, error) {
	const op = "PayCompleteV2"

	if confirmed == nil || confirmed.GetString("ID") == "" {
		c.critical(op, "call confirm before complete", provider.ErrPrecondition)
		return nil, provider.ErrPrecondition
	}

	if completeParams == nil {
		completeParams = NewPayCompleteParameter()
	}
	if action == "" {
		action = ActionSettlement
	}

	for _, name := range []string{"ID", "AMOUNT", "ACCOUNTID"} {
		v, ok := confirmed.Get(name)
		if !ok {
			continue
		}
		if err := completeParams.Set(name, v); err != nil {
			c.critical(op, "failed to copy confirmed field", err)
			return nil, err
		}
	}
	if err := completeParams.Set("ACTION", action); err != nil {
		c.critical(op, "failed to set action", err)
		return nil, err
	}

	data := url.Values{}
	for k, v := range completeParams.StringData() {
		data.Set(k, v)
	}

	password := spPassword
	if password == "" {
		password = c.config.SPPassword
	}

	switch {
	case IsTestAccountID(completeParams.GetString("ACCOUNTID")):
		data.Set("spPassword", TestAccountSPPassword)
	case action != ActionSettlement && password == "":
		c.critical(op, "no spPassword given for action "+action, provider.ErrNoPasswordGiven)
		return nil, provider.ErrNoPasswordGiven
	case password != "":
		data.Set("spPassword", password)
	}

	body, err := c.request(ctx, op, c.hostingURL(completeParams.Endpoint()), []byte(data.Encode()), formHeaders())
	if err != nil {
		return nil, err
	}

	if responseOut == nil {
		responseOut = NewPayCompleteResponse()
	}

	if len(body) < completePrefixLen {
		err := &provider.MalformedResponseError{Body: string(body), Err: errors.New("response shorter than its prefix")}
		c.critical(op, "invalid xml received from saferpay", err)
		return nil, err
	}

	if err := c.fillFromXML(op, responseOut, string(body[completePrefixLen:])); err != nil {
		return nil, err
	}

	return responseOut, nil
}

// request posts payload and checks the answer. Failures are logged once, here.
func (c *Client) request(ctx context.Context, op, target string, payload []byte, headers map[string]string) ([]byte, error) {
	logCtx := logger.LogContext{Provider: "saferpay", Operation: op, RequestID: provider.RequestIDFromContext(ctx)}

	c.log.Log(logger.LevelDebug, target, logCtx)
	c.log.Log(logger.LevelDebug, opensearch.SanitizeForLog(string(payload)), logCtx)

	resp, err := c.transport.Send(ctx, http.MethodPost, target, payload, headers)
	if err != nil {
		terr := &provider.TransportError{Err: err}
		c.critical(op, "request failed", terr)
		return nil, terr
	}

	content := string(resp.Body)
	c.log.Log(logger.LevelDebug, content, logCtx)

	if resp.StatusCode != http.StatusOK {
		terr := &provider.TransportError{StatusCode: resp.StatusCode, Body: content}
		c.critical(op, fmt.Sprintf("request failed with statuscode: %d", resp.StatusCode), terr)
		return nil, terr
	}

	if strings.Contains(content, "ERROR") {
		gerr := &provider.GatewayError{Body: content}
		c.critical(op, "request failed: "+content, gerr)
		return nil, gerr
	}

	return resp.Body, nil
}

// fillFromXML sets every attribute of the first element of body on out.
// Attributes out does not declare are skipped.
func (c *Client) fillFromXML(op string, out *provider.Collection, body string) error {
	dec := xml.NewDecoder(strings.NewReader(body))

	var root *xml.StartElement
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			merr := &provider.MalformedResponseError{Body: body, Err: err}
			c.critical(op, "invalid xml received from saferpay", merr)
			return merr
		}
		if start, ok := tok.(xml.StartElement); ok && root == nil {
			start = start.Copy()
			root = &start
		}
	}

	if root == nil {
		merr := &provider.MalformedResponseError{Body: body, Err: errors.New("no element found")}
		c.critical(op, "invalid xml received from saferpay", merr)
		return merr
	}

	for _, attr := range root.Attr {
		name := attr.Name.Local
		if !out.Schema().Has(name) {
			c.log.Log(logger.LevelWarn, "skipping undeclared attribute "+name, logger.LogContext{
				Provider:  "saferpay",
				Operation: op,
				Fields:    map[string]any{"collection": out.Name()},
			})
			continue
		}
		if err := out.Set(name, attr.Value); err != nil {
			c.critical(op, "failed to store attribute "+name, err)
			return err
		}
	}

	return nil
}

func (c *Client) critical(op, message string, err error) {
	c.log.Log(logger.LevelCritical, "Saferpay: "+message, logger.LogContext{
		Provider:  "saferpay",
		Operation: op,
		Fields:    map[string]any{"error": err.Error()},
	})
}

// apiURL maps the JSON API base onto the configured or environment host
func (c *Client) apiURL(endpoint string) string {
	if c.config.BaseURL != "" {
		return c.rebase(endpoint)
	}
	if !c.config.IsProduction() {
		return sandboxHost + strings.TrimPrefix(endpoint, productionHost)
	}
	return endpoint
}

// hostingURL keeps the live host unless a base URL is configured; test accounts run there too
func (c *Client) hostingURL(endpoint string) string {
	if c.config.BaseURL != "" {
		return c.rebase(endpoint)
	}
	return endpoint
}

func (c *Client) rebase(endpoint string) string {
	return strings.TrimSuffix(c.config.BaseURL, "/") + strings.TrimPrefix(endpoint, productionHost)
}

func (c *Client) basicAuth() string {
	creds := c.config.APIUsername + ":" + c.config.APIPassword
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(creds))
}

func formHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/x-www-form-urlencoded; charset=utf-8",
	}
}

var _ provider.Gateway = (*Client)(nil)
