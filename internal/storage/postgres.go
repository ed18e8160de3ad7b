package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/ordersbot/core/logger"
	"github.com/m3rciful/ordersbot/internal/domain"
	"log/slog"
)

// PostgresLedger keeps the order ledger in an append-only table; the
// BIGSERIAL id column is the append order.
type PostgresLedger struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgresLedger wraps an open sqlx connection.
func NewPostgresLedger(db *sqlx.DB) *PostgresLedger {
	return &PostgresLedger{db: db, now: time.Now}
}

const pgInsertOrder = `
INSERT INTO orders (client_id, username, status, created_at, status_updated_at, tariff_key, tariff_text, fio, dob)
VALUES (:client_id, :username, :status, :created_at, :status_updated_at, :tariff_key, :tariff_text, :fio, :dob)`

// SetStatus targets the max-id row for the client in a single UPDATE so
// two concurrent status changes cannot interleave a read with a write.
const pgSetStatus = `
UPDATE orders SET status = $2, status_updated_at = $3
WHERE id = (SELECT id FROM orders WHERE client_id = $1 ORDER BY id DESC LIMIT 1)`

const pgSelectCurrent = `
SELECT id, client_id, username, status, created_at, status_updated_at,
       COALESCE(tariff_key, '') AS tariff_key, COALESCE(tariff_text, '') AS tariff_text,
       COALESCE(fio, '') AS fio, COALESCE(dob, '') AS dob
FROM orders WHERE client_id = $1 ORDER BY id DESC LIMIT 1`

const pgSelectAll = `
SELECT id, client_id, username, status, created_at, status_updated_at,
       COALESCE(tariff_key, '') AS tariff_key, COALESCE(tariff_text, '') AS tariff_text,
       COALESCE(fio, '') AS fio, COALESCE(dob, '') AS dob
FROM orders ORDER BY id`

// Append inserts a new order record.
func (l *PostgresLedger) Append(ctx context.Context, order domain.Order) error {
	if _, err := l.db.NamedExecContext(ctx, pgInsertOrder, order); err != nil {
		logger.DB.Error("order insert failed",
			slog.String("event", "db.orders.append"),
			slog.String("client_id", order.ClientID),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("append order: %w", err)
	}
	return nil
}

// FindCurrent returns the latest record for the client.
func (l *PostgresLedger) FindCurrent(ctx context.Context, clientID string) (*domain.Order, error) {
	var order domain.Order
	if err := l.db.GetContext(ctx, &order, pgSelectCurrent, clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoOrder
		}
		return nil, fmt.Errorf("find current order: %w", err)
	}
	return &order, nil
}

// SetStatus updates the current record's status fields.
func (l *PostgresLedger) SetStatus(ctx context.Context, clientID string, status domain.Status) error {
	res, err := l.db.ExecContext(ctx, pgSetStatus, clientID, status, l.now())
	if err != nil {
		return fmt.Errorf("set order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set order status: %w", err)
	}
	if affected == 0 {
		return ErrNoOrder
	}
	return nil
}

// AllRecords returns every record in append order.
func (l *PostgresLedger) AllRecords(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := l.db.SelectContext(ctx, &orders, pgSelectAll); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}
