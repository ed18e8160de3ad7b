package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/ordersbot/internal/domain"
)

func newTempLedger(t *testing.T) *FileLedger {
	t.Helper()
	return NewFileLedger(filepath.Join(t.TempDir(), "orders_data.json"), time.UTC)
}

func testOrder(clientID string, status domain.Status) domain.Order {
	return domain.Order{
		ClientID:        clientID,
		Username:        "buyer",
		Status:          status,
		CreatedAt:       time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		StatusUpdatedAt: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		TariffKey:       "1_day",
		TariffText:      "1 day — 20₴",
		FullName:        "John Doe",
		BirthDate:       "01.02.1990",
	}
}

func TestFileLedgerMissingFileIsEmpty(t *testing.T) {
	ledger := newTempLedger(t)
	ctx := context.Background()

	records, err := ledger.AllRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = ledger.FindCurrent(ctx, "42")
	assert.ErrorIs(t, err, ErrNoOrder)
}

func TestFileLedgerAppendAndFindCurrent(t *testing.T) {
	ledger := newTempLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Append(ctx, testOrder("42", domain.StatusCompleted)))
	require.NoError(t, ledger.Append(ctx, testOrder("77", domain.StatusWaitingReq)))
	require.NoError(t, ledger.Append(ctx, testOrder("42", domain.StatusWaitingReq)))

	current, err := ledger.FindCurrent(ctx, "42")
	require.NoError(t, err)
	// Last appended record for the client wins.
	assert.Equal(t, domain.StatusWaitingReq, current.Status)
	assert.Equal(t, "John Doe", current.FullName)

	records, err := ledger.AllRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "42", records[0].ClientID)
	assert.Equal(t, "77", records[1].ClientID)
	assert.Equal(t, "42", records[2].ClientID)
}

func TestFileLedgerSetStatusTargetsCurrentRecord(t *testing.T) {
	ledger := newTempLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Append(ctx, testOrder("42", domain.StatusCompleted)))
	require.NoError(t, ledger.Append(ctx, testOrder("42", domain.StatusWaitingReq)))

	require.NoError(t, ledger.SetStatus(ctx, "42", domain.StatusWaitingPayment))

	records, err := ledger.AllRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, domain.StatusCompleted, records[0].Status)
	assert.Equal(t, domain.StatusWaitingPayment, records[1].Status)
	assert.False(t, records[1].StatusUpdatedAt.IsZero())
}

func TestFileLedgerSetStatusNoOrder(t *testing.T) {
	ledger := newTempLedger(t)
	err := ledger.SetStatus(context.Background(), "42", domain.StatusCompleted)
	assert.ErrorIs(t, err, ErrNoOrder)
}

func TestFileLedgerPersistsOriginalFieldNames(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders_data.json")
	ledger := NewFileLedger(path, time.UTC)

	require.NoError(t, ledger.Append(context.Background(), testOrder("42", domain.StatusWaitingReq)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "42", raw[0]["client_id"])
	assert.Equal(t, "John Doe", raw[0]["fio"])
	assert.Equal(t, "01.02.1990", raw[0]["dob"])
	assert.NotContains(t, raw[0], "id")
}

func TestFileLedgerLenientOnMalformedTimestamps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders_data.json")
	seed := `[
  {"client_id": "42", "username": "buyer", "status": "waiting_req", "created_at": "not-a-time"},
  {"client_id": "42", "username": "buyer", "status": "waiting_payment", "created_at": "2026-03-14T12:00:00Z"}
]`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	ledger := NewFileLedger(path, time.UTC)
	records, err := ledger.AllRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].CreatedAt.IsZero())
	assert.False(t, records[1].CreatedAt.IsZero())
}

func TestFileLedgerAppendIntoMissingDirFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "orders_data.json")
	ledger := NewFileLedger(path, time.UTC)

	err := ledger.Append(context.Background(), testOrder("42", domain.StatusWaitingReq))
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileLedgerCorruptFileFailsClosed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders_data.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	ledger := NewFileLedger(path, time.UTC)
	_, err := ledger.AllRecords(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoOrder)
}
