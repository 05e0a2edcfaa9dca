package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/paygate/internal/config"
)

// specVersion is the protocol version tag sent with every gateway request.
const specVersion = "1.31"

// GatewayError reports a transport failure or a non-success status from
// the gateway. Body carries the raw upstream response for diagnostics.
type GatewayError struct {
	Operation string
	Status    int
	Body      []byte
	Err       error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("saferpay %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("saferpay %s: status %d, body: %s", e.Operation, e.Status, string(e.Body))
}

func (e *GatewayError) Unwrap() error { return e.Err }

// MalformedResponseError reports a gateway response that came back with a
// success status but could not be interpreted: invalid JSON, or JSON
// missing the fields the operation requires.
type MalformedResponseError struct {
	Operation string
	Body      []byte
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("saferpay %s: unexpected response structure: %s", e.Operation, string(e.Body))
}

// AmountValue tolerates the gateway sending monetary values as either a
// JSON number or a quoted string; it always marshals as a number.
type AmountValue int64

func (v AmountValue) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(v), 10)), nil
}

func (v *AmountValue) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*v = 0
		return nil
	}
	parsed, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("amount value %q: %w", s, err)
	}
	*v = AmountValue(parsed)
	return nil
}

// Amount is the gateway's monetary block, value in minor units.
type Amount struct {
	Value        AmountValue `json:"Value"`
	CurrencyCode string      `json:"CurrencyCode"`
}

// Transaction is the gateway's transaction block as it appears in assert
// and capture responses and in webhook notifications.
type Transaction struct {
	Type   string  `json:"Type,omitempty"`
	ID     string  `json:"Id"`
	Status string  `json:"Status"`
	Date   string  `json:"Date,omitempty"`
	Amount *Amount `json:"Amount,omitempty"`
}

// PaymentMeans describes the instrument used, when the gateway reports it.
type PaymentMeans struct {
	Brand *Brand `json:"Brand,omitempty"`
}

type Brand struct {
	Name string `json:"Name"`
}

type requestHeader struct {
	SpecVersion    string `json:"SpecVersion"`
	CustomerID     string `json:"CustomerId"`
	RequestID      string `json:"RequestId"`
	RetryIndicator int    `json:"RetryIndicator"`
}

// SaferpayService talks to the Saferpay JSON API. It performs no retries
// and holds no store locks; retry policy belongs to callers.
type SaferpayService struct {
	baseURL    string
	customerID string
	terminalID string
	username   string
	password   string
	client     *http.Client
}

func NewSaferpayService(cfg *config.Config) *SaferpayService {
	return &SaferpayService{
		baseURL:    strings.TrimRight(cfg.SaferpayBaseURL, "/"),
		customerID: cfg.SaferpayCustomerID,
		terminalID: cfg.SaferpayTerminalID,
		username:   cfg.SaferpayUsername,
		password:   cfg.SaferpayPassword,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

// header builds the request header with a fresh correlation ID. The
// gateway uses the RequestId for idempotent retry detection, so it must
// never be reused across calls.
func (s *SaferpayService) header() requestHeader {
	return requestHeader{
		SpecVersion:    specVersion,
		CustomerID:     s.customerID,
		RequestID:      uuid.NewString(),
		RetryIndicator: 0,
	}
}

func (s *SaferpayService) post(operation, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("saferpay %s marshal: %w", operation, err)
	}

	req, err := http.NewRequest(http.MethodPost, s.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("saferpay %s request build: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(s.username, s.password)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &GatewayError{Operation: operation, Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &GatewayError{Operation: operation, Status: resp.StatusCode, Body: body}
	}

	return body, nil
}

// ReturnURLs are the browser return targets registered with the gateway
// at initialization time.
type ReturnURLs struct {
	Success string `json:"Success"`
	Fail    string `json:"Fail"`
	Abort   string `json:"Abort"`
}

type initializeRequest struct {
	RequestHeader requestHeader `json:"RequestHeader"`
	TerminalID    string        `json:"TerminalId"`
	Payment       paymentBlock  `json:"Payment"`
	ReturnUrls    ReturnURLs    `json:"ReturnUrls"`
}

type paymentBlock struct {
	Amount      Amount `json:"Amount"`
	OrderID     string `json:"OrderId"`
	Description string `json:"Description"`
}

type initializeResponse struct {
	Token       string `json:"Token"`
	Expiration  string `json:"Expiration"`
	RedirectURL string `json:"RedirectUrl"`
	Redirect    *struct {
		RedirectURL string `json:"RedirectUrl"`
	} `json:"Redirect"`
}

// InitializeResult is a successfully created hosted-page session.
type InitializeResult struct {
	Token       string
	Expiration  string
	RedirectURL string
}

// Initialize creates a hosted payment page session for the given order.
func (s *SaferpayService) Initialize(amount int64, currency, orderID string, urls ReturnURLs) (*InitializeResult, error) {
	payload := initializeRequest{
		RequestHeader: s.header(),
		TerminalID:    s.terminalID,
		Payment: paymentBlock{
			Amount:      Amount{Value: AmountValue(amount), CurrencyCode: currency},
			OrderID:     orderID,
			Description: currency + " Payment",
		},
		ReturnUrls: urls,
	}

	body, err := s.post("initialize", "/Payment/v1/PaymentPage/Initialize", payload)
	if err != nil {
		return nil, err
	}

	var parsed initializeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &MalformedResponseError{Operation: "initialize", Body: body}
	}

	redirectURL := parsed.RedirectURL
	if redirectURL == "" && parsed.Redirect != nil {
		redirectURL = parsed.Redirect.RedirectURL
	}

	if parsed.Token == "" || redirectURL == "" {
		return nil, &MalformedResponseError{Operation: "initialize", Body: body}
	}

	return &InitializeResult{
		Token:       parsed.Token,
		Expiration:  parsed.Expiration,
		RedirectURL: redirectURL,
	}, nil
}

type assertRequest struct {
	RequestHeader requestHeader `json:"RequestHeader"`
	Token         string        `json:"Token"`
}

// AssertResult reports the authorization outcome of a hosted-page flow.
// Transaction carries the raw transaction block for the caller to echo.
type AssertResult struct {
	Status      string
	Transaction json.RawMessage
}

// Assert queries the outcome of a session identified by token.
func (s *SaferpayService) Assert(token string) (*AssertResult, error) {
	payload := assertRequest{
		RequestHeader: s.header(),
		Token:         token,
	}

	body, err := s.post("assert", "/Payment/v1/PaymentPage/Assert", payload)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Transaction json.RawMessage `json:"Transaction"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &MalformedResponseError{Operation: "assert", Body: body}
	}

	if len(parsed.Transaction) == 0 || string(parsed.Transaction) == "null" {
		return nil, &MalformedResponseError{Operation: "assert", Body: body}
	}

	var transaction Transaction
	if err := json.Unmarshal(parsed.Transaction, &transaction); err != nil {
		return nil, &MalformedResponseError{Operation: "assert", Body: body}
	}

	return &AssertResult{
		Status:      transaction.Status,
		Transaction: parsed.Transaction,
	}, nil
}

type transactionReference struct {
	TransactionID string `json:"TransactionId"`
}

type captureRequest struct {
	RequestHeader        requestHeader        `json:"RequestHeader"`
	TransactionReference transactionReference `json:"TransactionReference"`
	Amount               Amount               `json:"Amount"`
}

type captureResponse struct {
	Transaction *Transaction `json:"Transaction"`
	Capture     *struct {
		TransactionID string `json:"TransactionId"`
	} `json:"Capture"`
	PaymentMeans *PaymentMeans `json:"PaymentMeans"`
}

// CaptureResult is the parsed outcome of a capture call. Either ID may be
// empty; callers resolve the canonical transaction identifier.
type CaptureResult struct {
	TransactionID        string
	CaptureTransactionID string
	Status               string
	Date                 string
	Brand                string
	Raw                  json.RawMessage
}

// Capture finalizes settlement of an authorized transaction.
func (s *SaferpayService) Capture(transactionID string, amount int64, currency string) (*CaptureResult, error) {
	payload := captureRequest{
		RequestHeader:        s.header(),
		TransactionReference: transactionReference{TransactionID: transactionID},
		Amount:               Amount{Value: AmountValue(amount), CurrencyCode: currency},
	}

	body, err := s.post("capture", "/Payment/v1/Transaction/Capture", payload)
	if err != nil {
		return nil, err
	}

	var parsed captureResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &MalformedResponseError{Operation: "capture", Body: body}
	}

	result := &CaptureResult{Raw: body}
	if parsed.Transaction != nil {
		result.TransactionID = parsed.Transaction.ID
		result.Status = parsed.Transaction.Status
		result.Date = parsed.Transaction.Date
	}
	if parsed.Capture != nil {
		result.CaptureTransactionID = parsed.Capture.TransactionID
	}
	if parsed.PaymentMeans != nil && parsed.PaymentMeans.Brand != nil {
		result.Brand = parsed.PaymentMeans.Brand.Name
	}

	return result, nil
}
