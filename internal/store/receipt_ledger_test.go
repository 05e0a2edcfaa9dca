package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/paygate/internal/models"
	"github.com/example/paygate/internal/store"
)

func TestMemoryLedgerUpsertIdempotent(t *testing.T) {
	ledger := store.NewMemoryLedger()

	receipt := models.Receipt{
		TransactionID: "T1",
		Status:        "CAPTURED",
		Amount:        1000,
		Currency:      "EUR",
		Method:        "Visa",
		Date:          time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	require.NoError(t, ledger.Upsert(receipt))
	require.NoError(t, ledger.Upsert(receipt))

	stored, ok, err := ledger.Get("T1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, receipt, stored)

	all, err := ledger.List()
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestMemoryLedgerLastWriteWins(t *testing.T) {
	ledger := store.NewMemoryLedger()

	require.NoError(t, ledger.Upsert(models.Receipt{TransactionID: "T1", Status: "CAPTURED", Amount: 1000, Currency: "EUR"}))
	require.NoError(t, ledger.Upsert(models.Receipt{TransactionID: "T1", Status: "REFUNDED", Amount: 1000, Currency: "EUR"}))

	stored, ok, err := ledger.Get("T1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "REFUNDED", stored.Status)
}

func TestMemoryLedgerGetMiss(t *testing.T) {
	ledger := store.NewMemoryLedger()

	_, ok, err := ledger.Get("unknown")
	require.NoError(t, err)
	require.False(t, ok)
}
