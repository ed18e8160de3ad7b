package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/m3rciful/ordersbot/internal/domain"
)

func recordAt(clientID string, at time.Time) domain.Order {
	return domain.Order{ClientID: clientID, Status: domain.StatusWaitingReq, CreatedAt: at}
}

func TestLimiterDisabledCeiling(t *testing.T) {
	limiter := NewHourlyLimiter(&fakeLedger{}, 0)
	assert.True(t, limiter.Admit(context.Background(), 42))
}

func TestLimiterAdmitsBelowCeiling(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	ledger := &fakeLedger{records: []domain.Order{
		recordAt("42", now.Add(-10*time.Minute)),
		recordAt("42", now.Add(-50*time.Minute)),
	}}
	limiter := NewHourlyLimiter(ledger, 3)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Admit(context.Background(), 42))
}

func TestLimiterDeniesAtCeiling(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	ledger := &fakeLedger{records: []domain.Order{
		recordAt("42", now.Add(-10*time.Minute)),
		recordAt("42", now.Add(-20*time.Minute)),
		recordAt("42", now.Add(-30*time.Minute)),
	}}
	limiter := NewHourlyLimiter(ledger, 3)
	limiter.now = func() time.Time { return now }

	assert.False(t, limiter.Admit(context.Background(), 42))
}

func TestLimiterWindowBoundaryExcluded(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	ledger := &fakeLedger{records: []domain.Order{
		// Exactly one hour old: outside the window.
		recordAt("42", now.Add(-time.Hour)),
		recordAt("42", now.Add(-time.Hour).Add(time.Nanosecond)),
	}}
	limiter := NewHourlyLimiter(ledger, 2)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Admit(context.Background(), 42))
}

func TestLimiterCountsPerClient(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	ledger := &fakeLedger{records: []domain.Order{
		recordAt("77", now.Add(-time.Minute)),
		recordAt("77", now.Add(-time.Minute)),
		recordAt("42", now.Add(-time.Minute)),
	}}
	limiter := NewHourlyLimiter(ledger, 2)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Admit(context.Background(), 42))
	assert.False(t, limiter.Admit(context.Background(), 77))
}

func TestLimiterSkipsUnparsableTimestamps(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	ledger := &fakeLedger{records: []domain.Order{
		// Zero CreatedAt stands in for a record whose timestamp failed to parse.
		recordAt("42", time.Time{}),
		recordAt("42", now.Add(-time.Minute)),
	}}
	limiter := NewHourlyLimiter(ledger, 2)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Admit(context.Background(), 42))
}

func TestLimiterFailsOpenOnLedgerError(t *testing.T) {
	ledger := &fakeLedger{listErr: errors.New("disk gone")}
	limiter := NewHourlyLimiter(ledger, 1)

	assert.True(t, limiter.Admit(context.Background(), 42))
}
