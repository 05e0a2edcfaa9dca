package services

import (
	"encoding/json"
	"log"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/example/paygate/internal/config"
	"github.com/example/paygate/internal/models"
	"github.com/example/paygate/internal/store"
)

// PaymentService drives the hosted-page payment lifecycle against the
// gateway and reconciles outcomes into the receipt ledger. Capture calls
// and webhook notifications both land here; the ledger makes their
// interleaving safe (idempotent upserts, last write wins).
type PaymentService struct {
	gateway  *SaferpayService
	sessions *store.SessionStore
	ledger   store.ReceiptLedger
	telegram *TelegramService
	baseURL  string
	currency string
}

func NewPaymentService(cfg *config.Config, gateway *SaferpayService, sessions *store.SessionStore, ledger store.ReceiptLedger, telegram *TelegramService) *PaymentService {
	return &PaymentService{
		gateway:  gateway,
		sessions: sessions,
		ledger:   ledger,
		telegram: telegram,
		baseURL:  cfg.AppBaseURL,
		currency: cfg.DefaultCurrency,
	}
}

// InitOutcome is a freshly created payment session.
type InitOutcome struct {
	OrderID     string
	Token       string
	Expiration  string
	RedirectURL string
}

// InitPayment creates a hosted-page session at the gateway and records it
// in the session store under a newly generated order ID.
func (s *PaymentService) InitPayment(amount int64) (*InitOutcome, error) {
	orderID := "ORDER-" + uuid.NewString()

	returnBase := s.baseURL + "/api/payments/return"
	query := "?orderId=" + url.QueryEscape(orderID)
	urls := ReturnURLs{
		Success: returnBase + "/success" + query,
		Fail:    returnBase + "/fail" + query,
		Abort:   returnBase + "/abort" + query,
	}

	result, err := s.gateway.Initialize(amount, s.currency, orderID, urls)
	if err != nil {
		return nil, err
	}

	s.sessions.Put(orderID, result.Token, result.Expiration)

	return &InitOutcome{
		OrderID:     orderID,
		Token:       result.Token,
		Expiration:  result.Expiration,
		RedirectURL: result.RedirectURL,
	}, nil
}

// AssertOutcome reports the authorization state of a session.
type AssertOutcome struct {
	Success     bool
	Status      string
	Message     string
	Transaction json.RawMessage
}

// AssertPayment queries the gateway for the outcome of a completed
// hosted-page flow.
func (s *PaymentService) AssertPayment(token string) (*AssertOutcome, error) {
	result, err := s.gateway.Assert(token)
	if err != nil {
		return nil, err
	}

	outcome := &AssertOutcome{
		Status:      result.Status,
		Transaction: result.Transaction,
	}

	switch result.Status {
	case "AUTHORIZED":
		outcome.Success = true
		outcome.Message = "Payment authorized"
	case "PENDING":
		outcome.Success = true
		outcome.Message = "Waiting for bank transfer"
	default:
		outcome.Message = "Payment not successful"
	}

	return outcome, nil
}

// CaptureOutcome is the result of a capture call. TransactionID is the
// resolved canonical identifier and may be empty when the gateway echoed
// none; in that case no receipt was written and RedirectURL is empty.
type CaptureOutcome struct {
	TransactionID string
	Capture       json.RawMessage
	RedirectURL   string
}

// Capture finalizes settlement and writes the receipt ledger. The
// canonical transaction ID is the first non-empty of: the gateway's
// transaction block ID, the capture block ID, the caller-supplied ID.
func (s *PaymentService) Capture(transactionID string, amount int64) (*CaptureOutcome, error) {
	result, err := s.gateway.Capture(transactionID, amount, s.currency)
	if err != nil {
		return nil, err
	}

	resolved := firstNonEmpty(result.TransactionID, result.CaptureTransactionID, transactionID)

	outcome := &CaptureOutcome{
		TransactionID: resolved,
		Capture:       result.Raw,
	}

	if resolved == "" {
		log.Println("[Payment] capture succeeded but no transaction id could be resolved, receipt not recorded")
		return outcome, nil
	}

	receipt := models.Receipt{
		TransactionID: resolved,
		Status:        firstNonEmpty(result.Status, "CAPTURED"),
		Amount:        amount,
		Currency:      s.currency,
		Method:        firstNonEmpty(result.Brand, "Card"),
		Date:          parseGatewayDate(result.Date),
	}

	if err := s.ledger.Upsert(receipt); err != nil {
		log.Printf("[Payment] failed to record receipt for %s: %v", resolved, err)
	} else if s.telegram != nil {
		_ = s.telegram.NotifyReceipt("capture", receipt)
	}

	outcome.RedirectURL = "/receipt.html?transactionId=" + url.QueryEscape(resolved)
	return outcome, nil
}

type notificationEvent struct {
	Transaction  *Transaction  `json:"Transaction"`
	PaymentMeans *PaymentMeans `json:"PaymentMeans"`
}

// HandleNotification reconciles an asynchronous gateway notification into
// the receipt ledger. It never fails: unusable bodies are logged and
// dropped, since the boundary contract with the gateway is "received",
// not "processed".
func (s *PaymentService) HandleNotification(body []byte) {
	log.Printf("[Payment] webhook received: %s", string(body))

	var event notificationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("[Payment] webhook body not parseable: %v", err)
		return
	}

	if event.Transaction == nil || event.Transaction.ID == "" {
		log.Println("[Payment] webhook carried no transaction id, ignored")
		return
	}

	receipt := models.Receipt{
		TransactionID: event.Transaction.ID,
		Status:        event.Transaction.Status,
		Method:        "Card",
		Date:          parseGatewayDate(event.Transaction.Date),
	}
	if event.Transaction.Amount != nil {
		receipt.Amount = int64(event.Transaction.Amount.Value)
		receipt.Currency = event.Transaction.Amount.CurrencyCode
	}
	if event.PaymentMeans != nil && event.PaymentMeans.Brand != nil && event.PaymentMeans.Brand.Name != "" {
		receipt.Method = event.PaymentMeans.Brand.Name
	}

	if err := s.ledger.Upsert(receipt); err != nil {
		log.Printf("[Payment] failed to record webhook receipt for %s: %v", receipt.TransactionID, err)
		return
	}

	if s.telegram != nil {
		_ = s.telegram.NotifyReceipt("webhook", receipt)
	}
}

// GetReceipt looks up the stored receipt for a transaction.
func (s *PaymentService) GetReceipt(transactionID string) (models.Receipt, bool, error) {
	return s.ledger.Get(transactionID)
}

// ListReceipts returns every receipt currently in the ledger.
func (s *PaymentService) ListReceipts() ([]models.Receipt, error) {
	return s.ledger.List()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseGatewayDate parses the gateway's ISO timestamp, defaulting to the
// time of write when absent or unparseable.
func parseGatewayDate(value string) time.Time {
	if value == "" {
		return time.Now().UTC()
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		log.Printf("[Payment] unparseable gateway date %q", value)
		return time.Now().UTC()
	}
	return parsed
}
