package domain

import (
	"strconv"
	"time"
)

// Status is the lifecycle stage of an order.
// New records start in StatusWaitingReq and only move forward through
// the lifecycle service; the single sanctioned reversal is an operator
// re-sending requisites to a waiting_confirm order.
type Status string

const (
	// StatusWaitingReq means identity data is stored and the ID photo is awaited.
	StatusWaitingReq Status = "waiting_req"
	// StatusWaitingPayment means the buyer has to pay against operator requisites.
	StatusWaitingPayment Status = "waiting_payment"
	// StatusWaitingConfirm means a payment proof was forwarded and awaits the operator.
	StatusWaitingConfirm Status = "waiting_confirm"
	// StatusCompleted means the delivery link was sent.
	StatusCompleted Status = "completed"
)

// UsernameNone is stored when the buyer has no Telegram username.
const UsernameNone = "none"

// Order is a single purchase attempt. Records are append-only: the
// current order for a client is the most recently appended one, and
// only Status and StatusUpdatedAt ever change after creation.
type Order struct {
	ID              int64     `db:"id" json:"-"`
	ClientID        string    `db:"client_id" json:"client_id"`
	Username        string    `db:"username" json:"username"`
	Status          Status    `db:"status" json:"status"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	StatusUpdatedAt time.Time `db:"status_updated_at" json:"status_updated_at"`
	TariffKey       string    `db:"tariff_key" json:"tariff_key,omitempty"`
	TariffText      string    `db:"tariff_text" json:"tariff_text,omitempty"`
	FullName        string    `db:"fio" json:"fio,omitempty"`
	BirthDate       string    `db:"dob" json:"dob,omitempty"`
}

// HasRequiredFields reports whether the record carries everything the
// operator needs alongside the ID photo.
func (o *Order) HasRequiredFields() bool {
	return o != nil && o.FullName != "" && o.BirthDate != "" && o.TariffText != ""
}

// AcceptsPaymentProof reports whether a payment proof may be attached
// at the order's current stage.
func (o *Order) AcceptsPaymentProof() bool {
	return o != nil && (o.Status == StatusWaitingPayment || o.Status == StatusWaitingConfirm)
}

// ClientKey renders a Telegram user id the way the ledger stores it.
func ClientKey(clientID int64) string {
	return strconv.FormatInt(clientID, 10)
}
