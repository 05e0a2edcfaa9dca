package store

import (
	"sync"

	"github.com/example/paygate/internal/models"
)

// ReceiptLedger is the single source of truth for "a payment was
// captured/settled". Upserts are idempotent and keyed by transaction ID;
// the most recent write wins regardless of which channel produced it.
type ReceiptLedger interface {
	Upsert(receipt models.Receipt) error
	Get(transactionID string) (models.Receipt, bool, error)
	List() ([]models.Receipt, error)
}

// MemoryLedger keeps receipts in process memory for the process lifetime.
type MemoryLedger struct {
	mu       sync.RWMutex
	receipts map[string]models.Receipt
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{receipts: make(map[string]models.Receipt)}
}

func (l *MemoryLedger) Upsert(receipt models.Receipt) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.receipts[receipt.TransactionID] = receipt
	return nil
}

func (l *MemoryLedger) Get(transactionID string) (models.Receipt, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	receipt, ok := l.receipts[transactionID]
	return receipt, ok, nil
}

func (l *MemoryLedger) List() ([]models.Receipt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	receipts := make([]models.Receipt, 0, len(l.receipts))
	for _, receipt := range l.receipts {
		receipts = append(receipts, receipt)
	}
	return receipts, nil
}
