package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/ordersbot/internal/domain"
)

func newMockLedger(t *testing.T) (*PostgresLedger, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	ledger := NewPostgresLedger(sqlx.NewDb(mockDB, "postgres"))
	return ledger, mock
}

func orderColumns() []string {
	return []string{
		"id", "client_id", "username", "status", "created_at", "status_updated_at",
		"tariff_key", "tariff_text", "fio", "dob",
	}
}

func TestPostgresLedgerAppend(t *testing.T) {
	ledger, mock := newMockLedger(t)
	created := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO orders").
		WithArgs("42", "buyer", "waiting_req", created, created, "1_day", "1 day — 20₴", "John Doe", "01.02.1990").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := ledger.Append(context.Background(), domain.Order{
		ClientID:        "42",
		Username:        "buyer",
		Status:          domain.StatusWaitingReq,
		CreatedAt:       created,
		StatusUpdatedAt: created,
		TariffKey:       "1_day",
		TariffText:      "1 day — 20₴",
		FullName:        "John Doe",
		BirthDate:       "01.02.1990",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedgerFindCurrent(t *testing.T) {
	ledger, mock := newMockLedger(t)
	created := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE client_id").
		WithArgs("42").
		WillReturnRows(sqlmock.NewRows(orderColumns()).
			AddRow(7, "42", "buyer", "waiting_payment", created, created, "1_day", "1 day — 20₴", "John Doe", "01.02.1990"))

	order, err := ledger.FindCurrent(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, int64(7), order.ID)
	assert.Equal(t, domain.StatusWaitingPayment, order.Status)
	assert.Equal(t, "John Doe", order.FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedgerFindCurrentNoOrder(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE client_id").
		WithArgs("42").
		WillReturnRows(sqlmock.NewRows(orderColumns()))

	_, err := ledger.FindCurrent(context.Background(), "42")
	assert.ErrorIs(t, err, ErrNoOrder)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedgerSetStatus(t *testing.T) {
	ledger, mock := newMockLedger(t)
	updated := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)
	ledger.now = func() time.Time { return updated }

	mock.ExpectExec("UPDATE orders SET status").
		WithArgs("42", "waiting_payment", updated).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, ledger.SetStatus(context.Background(), "42", domain.StatusWaitingPayment))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedgerSetStatusNoOrder(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectExec("UPDATE orders SET status").
		WithArgs("42", "completed", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := ledger.SetStatus(context.Background(), "42", domain.StatusCompleted)
	assert.ErrorIs(t, err, ErrNoOrder)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedgerAllRecords(t *testing.T) {
	ledger, mock := newMockLedger(t)
	created := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM orders ORDER BY id").
		WillReturnRows(sqlmock.NewRows(orderColumns()).
			AddRow(1, "42", "buyer", "completed", created, created, "", "", "", "").
			AddRow(2, "77", "none", "waiting_req", created, created, "1_day", "1 day — 20₴", "Jane Doe", "02.03.1991"))

	records, err := ledger.AllRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "42", records[0].ClientID)
	assert.Equal(t, domain.StatusWaitingReq, records[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
