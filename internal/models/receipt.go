package models

import "time"

// Receipt stores the last known settlement state of one transaction.
// The ledger is keyed by TransactionID; writes are upserts and the most
// recent write wins, whether it came from a capture call or a webhook.
type Receipt struct {
	TransactionID string    `gorm:"column:transaction_id;primaryKey" json:"transactionId"`
	Status        string    `json:"status"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Method        string    `json:"method"`
	Date          time.Time `json:"date"`
	UpdatedAt     time.Time `json:"-"`
}
