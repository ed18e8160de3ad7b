package service

import (
	"context"
	"time"

	"github.com/m3rciful/ordersbot/core/logger"
	"github.com/m3rciful/ordersbot/internal/domain"
	"github.com/m3rciful/ordersbot/internal/storage"
	"log/slog"
)

// HourlyLimiter admits a client while the number of their ledger
// records created strictly inside the trailing hour stays below the
// ceiling. The check is advisory: any internal failure admits rather
// than blocking a legitimate buyer, and records with unusable
// timestamps are skipped, not counted.
type HourlyLimiter struct {
	ledger  storage.Ledger
	ceiling int
	now     func() time.Time
}

// NewHourlyLimiter builds a limiter over the ledger. A non-positive
// ceiling disables limiting.
func NewHourlyLimiter(ledger storage.Ledger, ceiling int) *HourlyLimiter {
	return &HourlyLimiter{ledger: ledger, ceiling: ceiling, now: time.Now}
}

// Admit reports whether the client may start another purchase attempt.
func (l *HourlyLimiter) Admit(ctx context.Context, clientID int64) bool {
	if l.ceiling <= 0 {
		return true
	}

	records, err := l.ledger.AllRecords(ctx)
	if err != nil {
		logger.SVCOrders.Warn("rate limit scan failed, admitting",
			slog.String("event", "orders.rate_limit"),
			slog.Int64("user_id", clientID),
			slog.String("err", err.Error()),
		)
		return true
	}

	// A record created exactly one hour ago falls outside the window.
	cutoff := l.now().Add(-time.Hour)
	key := domain.ClientKey(clientID)
	count := 0
	for _, rec := range records {
		if rec.ClientID != key {
			continue
		}
		if rec.CreatedAt.After(cutoff) {
			count++
		}
	}

	if count >= l.ceiling {
		logger.SVCOrders.Warn("hourly request limit reached",
			slog.String("event", "orders.rate_limit"),
			slog.String("status", "rate_limited"),
			slog.Int64("user_id", clientID),
			slog.Int("window_count", count),
		)
		return false
	}
	return true
}
