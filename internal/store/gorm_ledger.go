package store

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/paygate/internal/models"
)

// GormLedger persists receipts to Postgres so settled payments survive a
// process restart. Selected when DATABASE_URL is configured; behavior is
// otherwise identical to MemoryLedger.
type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

func (l *GormLedger) Upsert(receipt models.Receipt) error {
	return l.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "transaction_id"}},
		UpdateAll: true,
	}).Create(&receipt).Error
}

func (l *GormLedger) Get(transactionID string) (models.Receipt, bool, error) {
	var receipt models.Receipt
	err := l.db.First(&receipt, "transaction_id = ?", transactionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Receipt{}, false, nil
	}
	if err != nil {
		return models.Receipt{}, false, err
	}
	return receipt, true, nil
}

func (l *GormLedger) List() ([]models.Receipt, error) {
	var receipts []models.Receipt
	if err := l.db.Order("updated_at DESC").Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}
