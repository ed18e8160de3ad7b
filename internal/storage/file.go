package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/m3rciful/ordersbot/core/logger"
	"github.com/m3rciful/ordersbot/internal/domain"
	"log/slog"
)

// fileRecord mirrors the on-disk JSON shape. Timestamps stay strings
// here so rewriting the file never mangles fields it does not touch.
type fileRecord struct {
	ClientID        string `json:"client_id"`
	Username        string `json:"username"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at"`
	StatusUpdatedAt string `json:"status_updated_at,omitempty"`
	TariffKey       string `json:"tariff_key,omitempty"`
	TariffText      string `json:"tariff_text,omitempty"`
	FullName        string `json:"fio,omitempty"`
	BirthDate       string `json:"dob,omitempty"`
}

// FileLedger stores the ledger as a single JSON array, reloaded on
// every operation and rewritten atomically via a temp file + rename so
// a failed save leaves the previous content intact.
type FileLedger struct {
	mu   sync.Mutex
	path string
	loc  *time.Location
	now  func() time.Time
}

// NewFileLedger creates a ledger over the given data file. The file
// may not exist yet; timestamps are written in loc.
func NewFileLedger(path string, loc *time.Location) *FileLedger {
	if loc == nil {
		loc = time.UTC
	}
	return &FileLedger{path: path, loc: loc, now: time.Now}
}

// Append adds a record to the end of the array.
func (l *FileLedger) Append(ctx context.Context, order domain.Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load()
	if err != nil {
		return err
	}
	records = append(records, fileRecord{
		ClientID:        order.ClientID,
		Username:        order.Username,
		Status:          string(order.Status),
		CreatedAt:       l.formatTime(order.CreatedAt),
		StatusUpdatedAt: l.formatTime(order.StatusUpdatedAt),
		TariffKey:       order.TariffKey,
		TariffText:      order.TariffText,
		FullName:        order.FullName,
		BirthDate:       order.BirthDate,
	})
	return l.save(records)
}

// FindCurrent scans in reverse: the last appended match wins.
func (l *FileLedger) FindCurrent(ctx context.Context, clientID string) (*domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load()
	if err != nil {
		return nil, err
	}
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].ClientID == clientID {
			order := l.toOrder(records[i])
			return &order, nil
		}
	}
	return nil, ErrNoOrder
}

// SetStatus mutates the last appended record for the client in place.
func (l *FileLedger) SetStatus(ctx context.Context, clientID string, status domain.Status) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load()
	if err != nil {
		return err
	}
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].ClientID != clientID {
			continue
		}
		records[i].Status = string(status)
		records[i].StatusUpdatedAt = l.formatTime(l.now())
		return l.save(records)
	}
	return ErrNoOrder
}

// AllRecords returns every record in append order.
func (l *FileLedger) AllRecords(ctx context.Context) ([]domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load()
	if err != nil {
		return nil, err
	}
	orders := make([]domain.Order, len(records))
	for i, rec := range records {
		orders[i] = l.toOrder(rec)
	}
	return orders, nil
}

func (l *FileLedger) load() ([]fileRecord, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read ledger file: %w", err)
	}
	var records []fileRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode ledger file: %w", err)
	}
	return records, nil
}

func (l *FileLedger) save(records []fileRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger file: %w", err)
	}

	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, ".orders-*.json")
	if err != nil {
		return fmt.Errorf("write ledger file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write ledger file: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write ledger file: %w", err)
	}
	return nil
}

func (l *FileLedger) formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(l.loc).Format(time.RFC3339Nano)
}

// toOrder converts a raw record; a malformed timestamp becomes the zero
// time with a warning instead of failing the whole scan.
func (l *FileLedger) toOrder(rec fileRecord) domain.Order {
	return domain.Order{
		ClientID:        rec.ClientID,
		Username:        rec.Username,
		Status:          domain.Status(rec.Status),
		CreatedAt:       l.parseTime(rec.CreatedAt),
		StatusUpdatedAt: l.parseTime(rec.StatusUpdatedAt),
		TariffKey:       rec.TariffKey,
		TariffText:      rec.TariffText,
		FullName:        rec.FullName,
		BirthDate:       rec.BirthDate,
	}
}

func (l *FileLedger) parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		logger.DB.Warn("malformed ledger timestamp",
			slog.String("event", "db.orders.timestamp"),
			slog.String("storage", "file"),
			slog.String("payload", logger.SanitizeLimit(raw, 64)),
		)
		return time.Time{}
	}
	return t
}
