// Package service implements the order lifecycle: admission, record
// creation, and every status transition between buyer actions and
// operator actions.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m3rciful/ordersbot/core/logger"
	"github.com/m3rciful/ordersbot/internal/domain"
	"github.com/m3rciful/ordersbot/internal/storage"
	"log/slog"
)

var (
	// ErrLimitExceeded is returned when the hourly admission check denies a client.
	ErrLimitExceeded = errors.New("orders: hourly request limit exceeded")
	// ErrUnknownTariff is returned for a tariff key outside the catalog.
	ErrUnknownTariff = errors.New("orders: unknown tariff")
	// ErrIncompleteOrder is returned when the current record lacks the
	// identity fields required alongside the ID photo.
	ErrIncompleteOrder = errors.New("orders: order record missing required fields")
	// ErrWrongStage is returned when an action does not match the
	// order's current status.
	ErrWrongStage = errors.New("orders: action not allowed at current stage")
	// ErrOperatorUnreachable is returned when forwarding to the
	// operator chat failed; no status was changed.
	ErrOperatorUnreachable = errors.New("orders: forward to operator failed")
	// ErrClientUnreachable is returned when a client notification
	// failed after the status change was already committed.
	ErrClientUnreachable = errors.New("orders: client notification failed")
)

// Options configures the order service.
type Options struct {
	Ledger         storage.Ledger
	Notifier       Notifier
	Catalog        domain.Catalog
	OperatorChatID int64
	HourlyLimit    int
	Location       *time.Location
}

// Service owns all status transitions on current order records. Ledger
// read-then-write sequences for one client are serialized through a
// per-client mutex; different clients proceed concurrently.
type Service struct {
	ledger   storage.Ledger
	notifier Notifier
	catalog  domain.Catalog
	limiter  *HourlyLimiter
	operator int64
	loc      *time.Location
	locks    *keyedMutex
	now      func() time.Time
}

// New builds the order service.
func New(opts Options) *Service {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		ledger:   opts.Ledger,
		notifier: opts.Notifier,
		catalog:  opts.Catalog,
		limiter:  NewHourlyLimiter(opts.Ledger, opts.HourlyLimit),
		operator: opts.OperatorChatID,
		loc:      loc,
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
}

// Catalog returns the ordered tariff catalog.
func (s *Service) Catalog() domain.Catalog {
	return s.catalog
}

// SelectTariff validates the tariff key and the hourly admission check
// before a data-collection conversation may start.
func (s *Service) SelectTariff(ctx context.Context, clientID int64, key string) (domain.Tariff, error) {
	tariff, ok := s.catalog.Get(key)
	if !ok {
		return domain.Tariff{}, ErrUnknownTariff
	}
	if !s.limiter.Admit(ctx, clientID) {
		return domain.Tariff{}, ErrLimitExceeded
	}
	return tariff, nil
}

// CreateOrder appends a new record with status waiting_req, snapshotting
// the tariff display text at creation time.
func (s *Service) CreateOrder(ctx context.Context, clientID int64, username, tariffKey, fullName, birthDate string) error {
	tariff, ok := s.catalog.Get(tariffKey)
	if !ok {
		return ErrUnknownTariff
	}

	unlock := s.locks.Lock(clientID)
	defer unlock()

	now := s.now().In(s.loc)
	order := domain.Order{
		ClientID:        domain.ClientKey(clientID),
		Username:        normalizeUsername(username),
		Status:          domain.StatusWaitingReq,
		CreatedAt:       now,
		StatusUpdatedAt: now,
		TariffKey:       tariff.Key,
		TariffText:      tariff.Text,
		FullName:        fullName,
		BirthDate:       birthDate,
	}
	if err := s.ledger.Append(ctx, order); err != nil {
		logger.SVCOrders.Error("order append failed",
			slog.String("event", "orders.create"),
			slog.Int64("user_id", clientID),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("create order: %w", err)
	}

	logger.SVCOrders.Info("order created",
		slog.String("event", "orders.create"),
		slog.Int64("user_id", clientID),
		slog.String("tariff", tariff.Key),
		slog.String("order_status", string(domain.StatusWaitingReq)),
	)
	return nil
}

// CurrentStatus returns the status of the client's current record.
func (s *Service) CurrentStatus(ctx context.Context, clientID int64) (domain.Status, error) {
	unlock := s.locks.Lock(clientID)
	defer unlock()

	order, err := s.ledger.FindCurrent(ctx, domain.ClientKey(clientID))
	if err != nil {
		return "", err
	}
	return order.Status, nil
}

// SubmitIDPhoto forwards the buyer's ID photo with its metadata to the
// operator chat and moves the order to waiting_payment. A forward
// failure aborts without any ledger mutation.
func (s *Service) SubmitIDPhoto(ctx context.Context, clientID int64, username, fileID string) error {
	unlock := s.locks.Lock(clientID)
	defer unlock()

	order, err := s.ledger.FindCurrent(ctx, domain.ClientKey(clientID))
	if err != nil {
		return err
	}
	if !order.HasRequiredFields() {
		return ErrIncompleteOrder
	}
	if order.Status != domain.StatusWaitingReq {
		return ErrWrongStage
	}

	caption := idPhotoCaption(clientID, username, order)
	if err := s.notifier.SendPhoto(ctx, s.operator, fileID, caption, FormatHTML); err != nil {
		logger.SVCOrders.Error("id photo forward failed",
			slog.String("event", "orders.id_photo"),
			slog.Int64("user_id", clientID),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%w: %w", ErrOperatorUnreachable, err)
	}

	if err := s.ledger.SetStatus(ctx, domain.ClientKey(clientID), domain.StatusWaitingPayment); err != nil {
		return fmt.Errorf("id photo status update: %w", err)
	}
	logger.SVCOrders.Info("id photo accepted",
		slog.String("event", "orders.id_photo"),
		slog.Int64("user_id", clientID),
		slog.String("order_status", string(domain.StatusWaitingPayment)),
	)
	return nil
}

// SubmitPaymentProof forwards a payment proof (photo or document) to
// the operator chat and moves the order to waiting_confirm.
func (s *Service) SubmitPaymentProof(ctx context.Context, clientID int64, username, fileID string, isDocument bool) error {
	unlock := s.locks.Lock(clientID)
	defer unlock()

	order, err := s.ledger.FindCurrent(ctx, domain.ClientKey(clientID))
	if err != nil {
		return err
	}
	if !order.AcceptsPaymentProof() {
		return ErrWrongStage
	}

	caption := paymentProofCaption(clientID, username)
	if isDocument {
		err = s.notifier.SendDocument(ctx, s.operator, fileID, caption, FormatHTML)
	} else {
		err = s.notifier.SendPhoto(ctx, s.operator, fileID, caption, FormatHTML)
	}
	if err != nil {
		logger.SVCOrders.Error("payment proof forward failed",
			slog.String("event", "orders.payment_proof"),
			slog.Int64("user_id", clientID),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%w: %w", ErrOperatorUnreachable, err)
	}

	if err := s.ledger.SetStatus(ctx, domain.ClientKey(clientID), domain.StatusWaitingConfirm); err != nil {
		return fmt.Errorf("payment proof status update: %w", err)
	}
	logger.SVCOrders.Info("payment proof accepted",
		slog.String("event", "orders.payment_proof"),
		slog.Int64("user_id", clientID),
		slog.String("order_status", string(domain.StatusWaitingConfirm)),
	)
	return nil
}

// SendRequisites moves the current order to waiting_payment and sends
// the payment requisites to the client. This is also the operator's
// manual-correction path: calling it on a waiting_confirm order reverts
// that order, which is logged distinctly. A delivery failure is
// reported but never rolls back the committed status change.
func (s *Service) SendRequisites(ctx context.Context, clientID int64, requisites string) error {
	unlock := s.locks.Lock(clientID)
	defer unlock()

	order, err := s.ledger.FindCurrent(ctx, domain.ClientKey(clientID))
	if err != nil {
		return err
	}
	if err := s.ledger.SetStatus(ctx, domain.ClientKey(clientID), domain.StatusWaitingPayment); err != nil {
		return fmt.Errorf("requisites status update: %w", err)
	}
	if order.Status == domain.StatusWaitingConfirm {
		logger.SVCOrders.Warn("order reverted by operator",
			slog.String("event", "orders.status.reverted"),
			slog.Int64("user_id", clientID),
			slog.String("prev_status", string(order.Status)),
			slog.String("order_status", string(domain.StatusWaitingPayment)),
		)
	} else {
		logger.SVCOrders.Info("requisites sent",
			slog.String("event", "orders.requisites"),
			slog.Int64("user_id", clientID),
			slog.String("order_status", string(domain.StatusWaitingPayment)),
		)
	}

	if err := s.notifier.SendText(ctx, clientID, requisitesMessage(requisites), FormatHTML); err != nil {
		logger.SVCOrders.Error("requisites delivery failed",
			slog.String("event", "orders.requisites"),
			slog.Int64("user_id", clientID),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%w: %w", ErrClientUnreachable, err)
	}
	return nil
}

// ConfirmPayment completes the current order and sends the delivery
// link to the client. A delivery failure is reported but never rolls
// back the committed status change.
func (s *Service) ConfirmPayment(ctx context.Context, clientID int64, link string) error {
	unlock := s.locks.Lock(clientID)
	defer unlock()

	if _, err := s.ledger.FindCurrent(ctx, domain.ClientKey(clientID)); err != nil {
		return err
	}
	if err := s.ledger.SetStatus(ctx, domain.ClientKey(clientID), domain.StatusCompleted); err != nil {
		return fmt.Errorf("confirm status update: %w", err)
	}
	logger.SVCOrders.Info("payment confirmed",
		slog.String("event", "orders.confirm"),
		slog.Int64("user_id", clientID),
		slog.String("order_status", string(domain.StatusCompleted)),
	)

	if err := s.notifier.SendText(ctx, clientID, deliveryMessage(link), FormatHTML); err != nil {
		logger.SVCOrders.Error("delivery link send failed",
			slog.String("event", "orders.confirm"),
			slog.Int64("user_id", clientID),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%w: %w", ErrClientUnreachable, err)
	}
	return nil
}

func normalizeUsername(username string) string {
	if username == "" {
		return domain.UsernameNone
	}
	return username
}
