// Package storage provides the durable order ledger. Records are
// append-only: nothing is ever deleted, and only the status fields of
// the most recently appended record per client may change.
package storage

import (
	"context"
	"errors"

	"github.com/m3rciful/ordersbot/internal/domain"
)

// ErrNoOrder is returned when a client has no ledger record.
var ErrNoOrder = errors.New("storage: no order for client")

// Ledger is the durable order store.
type Ledger interface {
	// Append durably adds a record; existing records are never touched.
	Append(ctx context.Context, order domain.Order) error
	// FindCurrent returns the most recently appended record for the
	// client, or ErrNoOrder.
	FindCurrent(ctx context.Context, clientID string) (*domain.Order, error)
	// SetStatus updates the current record's status and
	// status_updated_at; returns ErrNoOrder when the client has no record.
	SetStatus(ctx context.Context, clientID string, status domain.Status) error
	// AllRecords returns every record in append order.
	AllRecords(ctx context.Context) ([]domain.Order, error)
}
