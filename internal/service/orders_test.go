package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/ordersbot/internal/domain"
	"github.com/m3rciful/ordersbot/internal/storage"
)

const operatorChat int64 = -100500

type fakeLedger struct {
	mu      sync.Mutex
	records []domain.Order

	appendErr error
	listErr   error
	now       func() time.Time
}

func (f *fakeLedger) Append(ctx context.Context, order domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	order.ID = int64(len(f.records) + 1)
	f.records = append(f.records, order)
	return nil
}

func (f *fakeLedger) FindCurrent(ctx context.Context, clientID string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].ClientID == clientID {
			order := f.records[i]
			return &order, nil
		}
	}
	return nil, storage.ErrNoOrder
}

func (f *fakeLedger) SetStatus(ctx context.Context, clientID string, status domain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].ClientID != clientID {
			continue
		}
		f.records[i].Status = status
		when := time.Now()
		if f.now != nil {
			when = f.now()
		}
		f.records[i].StatusUpdatedAt = when
		return nil
	}
	return storage.ErrNoOrder
}

func (f *fakeLedger) AllRecords(ctx context.Context) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Order, len(f.records))
	copy(out, f.records)
	return out, nil
}

type sentMessage struct {
	kind    string
	chatID  int64
	fileID  string
	text    string
	caption string
	format  Format
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	fail map[string]error
}

func (f *fakeNotifier) record(msg sentMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[msg.kind]; err != nil {
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeNotifier) SendText(ctx context.Context, chatID int64, text string, format Format) error {
	return f.record(sentMessage{kind: "text", chatID: chatID, text: text, format: format})
}

func (f *fakeNotifier) SendPhoto(ctx context.Context, chatID int64, fileID, caption string, format Format) error {
	return f.record(sentMessage{kind: "photo", chatID: chatID, fileID: fileID, caption: caption, format: format})
}

func (f *fakeNotifier) SendDocument(ctx context.Context, chatID int64, fileID, caption string, format Format) error {
	return f.record(sentMessage{kind: "document", chatID: chatID, fileID: fileID, caption: caption, format: format})
}

func (f *fakeNotifier) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

func newTestService(ledger *fakeLedger, notifier *fakeNotifier, limit int) *Service {
	return New(Options{
		Ledger:         ledger,
		Notifier:       notifier,
		Catalog:        domain.DefaultCatalog(),
		OperatorChatID: operatorChat,
		HourlyLimit:    limit,
	})
}

func TestCreateOrderAppendsWaitingReqRecord(t *testing.T) {
	ledger := &fakeLedger{}
	svc := newTestService(ledger, &fakeNotifier{}, 10)
	frozen := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return frozen }

	err := svc.CreateOrder(context.Background(), 42, "buyer", "30_days", "John Doe", "01.02.1990")
	require.NoError(t, err)

	require.Len(t, ledger.records, 1)
	rec := ledger.records[0]
	assert.Equal(t, "42", rec.ClientID)
	assert.Equal(t, "buyer", rec.Username)
	assert.Equal(t, domain.StatusWaitingReq, rec.Status)
	assert.Equal(t, "30_days", rec.TariffKey)
	assert.NotEmpty(t, rec.TariffText)
	assert.Equal(t, "John Doe", rec.FullName)
	assert.Equal(t, "01.02.1990", rec.BirthDate)
	assert.True(t, rec.CreatedAt.Equal(frozen))
	assert.True(t, rec.StatusUpdatedAt.Equal(frozen))
}

func TestCreateOrderWithoutUsernameStoresNone(t *testing.T) {
	ledger := &fakeLedger{}
	svc := newTestService(ledger, &fakeNotifier{}, 10)

	require.NoError(t, svc.CreateOrder(context.Background(), 42, "", "1_day", "John Doe", "01.02.1990"))
	require.Len(t, ledger.records, 1)
	assert.Equal(t, domain.UsernameNone, ledger.records[0].Username)
}

func TestCreateOrderUnknownTariff(t *testing.T) {
	ledger := &fakeLedger{}
	svc := newTestService(ledger, &fakeNotifier{}, 10)

	err := svc.CreateOrder(context.Background(), 42, "buyer", "nope", "John Doe", "01.02.1990")
	assert.ErrorIs(t, err, ErrUnknownTariff)
	assert.Empty(t, ledger.records)
}

func TestSelectTariff(t *testing.T) {
	ledger := &fakeLedger{}
	svc := newTestService(ledger, &fakeNotifier{}, 10)

	tariff, err := svc.SelectTariff(context.Background(), 42, "90_days")
	require.NoError(t, err)
	assert.Equal(t, "90_days", tariff.Key)

	_, err = svc.SelectTariff(context.Background(), 42, "bogus")
	assert.ErrorIs(t, err, ErrUnknownTariff)
}

func TestSelectTariffRateLimited(t *testing.T) {
	ledger := &fakeLedger{}
	now := time.Now()
	for i := 0; i < 3; i++ {
		ledger.records = append(ledger.records, domain.Order{
			ClientID:  "42",
			Status:    domain.StatusWaitingReq,
			CreatedAt: now.Add(-time.Minute),
		})
	}
	svc := newTestService(ledger, &fakeNotifier{}, 3)

	_, err := svc.SelectTariff(context.Background(), 42, "1_day")
	assert.ErrorIs(t, err, ErrLimitExceeded)

	// Another client still gets through.
	_, err = svc.SelectTariff(context.Background(), 77, "1_day")
	assert.NoError(t, err)
}

func seedOrder(ledger *fakeLedger, clientID string, status domain.Status) {
	ledger.records = append(ledger.records, domain.Order{
		ClientID:   clientID,
		Username:   "buyer",
		Status:     status,
		CreatedAt:  time.Now(),
		TariffKey:  "1_day",
		TariffText: "1 day — 20₴",
		FullName:   "John Doe",
		BirthDate:  "01.02.1990",
	})
}

func TestSubmitIDPhotoForwardsThenAdvances(t *testing.T) {
	ledger := &fakeLedger{}
	seedOrder(ledger, "42", domain.StatusWaitingReq)
	notifier := &fakeNotifier{}
	svc := newTestService(ledger, notifier, 10)

	require.NoError(t, svc.SubmitIDPhoto(context.Background(), 42, "buyer", "file-1"))

	msgs := notifier.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "photo", msgs[0].kind)
	assert.Equal(t, operatorChat, msgs[0].chatID)
	assert.Equal(t, "file-1", msgs[0].fileID)
	assert.Equal(t, FormatHTML, msgs[0].format)
	assert.Contains(t, msgs[0].caption, "John Doe")
	assert.Contains(t, msgs[0].caption, "/send_req 42")

	assert.Equal(t, domain.StatusWaitingPayment, ledger.records[0].Status)
}

func TestSubmitIDPhotoOperatorFailureKeepsStatus(t *testing.T) {
	ledger := &fakeLedger{}
	seedOrder(ledger, "42", domain.StatusWaitingReq)
	notifier := &fakeNotifier{fail: map[string]error{"photo": errors.New("telegram down")}}
	svc := newTestService(ledger, notifier, 10)

	err := svc.SubmitIDPhoto(context.Background(), 42, "buyer", "file-1")
	assert.ErrorIs(t, err, ErrOperatorUnreachable)
	assert.Equal(t, domain.StatusWaitingReq, ledger.records[0].Status)
}

func TestSubmitIDPhotoWrongStage(t *testing.T) {
	ledger := &fakeLedger{}
	seedOrder(ledger, "42", domain.StatusWaitingPayment)
	svc := newTestService(ledger, &fakeNotifier{}, 10)

	err := svc.SubmitIDPhoto(context.Background(), 42, "buyer", "file-1")
	assert.ErrorIs(t, err, ErrWrongStage)
}

func TestSubmitIDPhotoIncompleteRecord(t *testing.T) {
	ledger := &fakeLedger{records: []domain.Order{{
		ClientID:  "42",
		Status:    domain.StatusWaitingReq,
		CreatedAt: time.Now(),
	}}}
	svc := newTestService(ledger, &fakeNotifier{}, 10)

	err := svc.SubmitIDPhoto(context.Background(), 42, "buyer", "file-1")
	assert.ErrorIs(t, err, ErrIncompleteOrder)
}

func TestSubmitPaymentProofDocument(t *testing.T) {
	ledger := &fakeLedger{}
	seedOrder(ledger, "42", domain.StatusWaitingPayment)
	notifier := &fakeNotifier{}
	svc := newTestService(ledger, notifier, 10)

	require.NoError(t, svc.SubmitPaymentProof(context.Background(), 42, "buyer", "doc-1", true))

	msgs := notifier.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "document", msgs[0].kind)
	assert.Contains(t, msgs[0].caption, "/confirm 42")
	assert.Equal(t, domain.StatusWaitingConfirm, ledger.records[0].Status)
}

func TestSubmitPaymentProofResendWhileWaitingConfirm(t *testing.T) {
	ledger := &fakeLedger{}
	seedOrder(ledger, "42", domain.StatusWaitingConfirm)
	notifier := &fakeNotifier{}
	svc := newTestService(ledger, notifier, 10)

	require.NoError(t, svc.SubmitPaymentProof(context.Background(), 42, "buyer", "file-2", false))
	assert.Equal(t, domain.StatusWaitingConfirm, ledger.records[0].Status)
}

func TestSubmitPaymentProofWrongStage(t *testing.T) {
	ledger := &fakeLedger{}
	seedOrder(ledger, "42", domain.StatusCompleted)
	svc := newTestService(ledger, &fakeNotifier{}, 10)

	err := svc.SubmitPaymentProof(context.Background(), 42, "buyer", "file-2", false)
	assert.ErrorIs(t, err, ErrWrongStage)
}

func TestSendRequisitesAdvancesAndNotifies(t *testing.T) {
	ledger := &fakeLedger{}
	seedOrder(ledger, "42", domain.StatusWaitingReq)
	notifier := &fakeNotifier{}
	svc := newTestService(ledger, notifier, 10)

	require.NoError(t, svc.SendRequisites(context.Background(), 42, "card 0000"))

	msgs := notifier.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "text", msgs[0].kind)
	assert.Equal(t, int64(42), msgs[0].chatID)
	assert.Contains(t, msgs[0].text, "card 0000")
	assert.Equal(t, domain.StatusWaitingPayment, ledger.records[0].Status)
}

func TestSendRequisitesRevertsWaitingConfirm(t *testing.T) {
	ledger := &fakeLedger{}
	seedOrder(ledger, "42", domain.StatusWaitingConfirm)
	svc := newTestService(ledger, &fakeNotifier{}, 10)

	require.NoError(t, svc.SendRequisites(context.Background(), 42, "card 0000"))
	assert.Equal(t, domain.StatusWaitingPayment, ledger.records[0].Status)
}

func TestSendRequisitesTwiceAdvancesTimestampMonotonically(t *testing.T) {
	ledger := &fakeLedger{}
	seedOrder(ledger, "42", domain.StatusWaitingReq)
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	step := 0
	ledger.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Minute)
	}
	notifier := &fakeNotifier{}
	svc := newTestService(ledger, notifier, 10)

	require.NoError(t, svc.SendRequisites(context.Background(), 42, "card 0000"))
	first := ledger.records[0].StatusUpdatedAt
	assert.Equal(t, domain.StatusWaitingPayment, ledger.records[0].Status)

	require.NoError(t, svc.SendRequisites(context.Background(), 42, "card 0000"))
	second := ledger.records[0].StatusUpdatedAt

	assert.Equal(t, domain.StatusWaitingPayment, ledger.records[0].Status)
	assert.True(t, second.After(first))
	assert.Len(t, notifier.messages(), 2)
}

func TestSendRequisitesClientUnreachableKeepsStatus(t *testing.T) {
	ledger := &fakeLedger{}
	seedOrder(ledger, "42", domain.StatusWaitingReq)
	notifier := &fakeNotifier{fail: map[string]error{"text": errors.New("blocked")}}
	svc := newTestService(ledger, notifier, 10)

	err := svc.SendRequisites(context.Background(), 42, "card 0000")
	assert.ErrorIs(t, err, ErrClientUnreachable)
	// Delivery failure never rolls back the committed transition.
	assert.Equal(t, domain.StatusWaitingPayment, ledger.records[0].Status)
}

func TestSendRequisitesNoOrder(t *testing.T) {
	svc := newTestService(&fakeLedger{}, &fakeNotifier{}, 10)
	err := svc.SendRequisites(context.Background(), 42, "card 0000")
	assert.ErrorIs(t, err, storage.ErrNoOrder)
}

func TestConfirmPaymentCompletesAndSendsLink(t *testing.T) {
	ledger := &fakeLedger{}
	seedOrder(ledger, "42", domain.StatusWaitingConfirm)
	notifier := &fakeNotifier{}
	svc := newTestService(ledger, notifier, 10)

	require.NoError(t, svc.ConfirmPayment(context.Background(), 42, "https://example.com/get"))

	msgs := notifier.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].text, "https://example.com/get")
	assert.Equal(t, domain.StatusCompleted, ledger.records[0].Status)
}

func TestConfirmPaymentNoOrder(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newTestService(&fakeLedger{}, notifier, 10)

	err := svc.ConfirmPayment(context.Background(), 42, "https://example.com/get")
	assert.ErrorIs(t, err, storage.ErrNoOrder)
	assert.Empty(t, notifier.messages())
}

func TestCurrentStatusTracksLatestRecord(t *testing.T) {
	ledger := &fakeLedger{}
	seedOrder(ledger, "42", domain.StatusCompleted)
	seedOrder(ledger, "42", domain.StatusWaitingReq)
	svc := newTestService(ledger, &fakeNotifier{}, 10)

	status, err := svc.CurrentStatus(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaitingReq, status)

	_, err = svc.CurrentStatus(context.Background(), 77)
	assert.ErrorIs(t, err, storage.ErrNoOrder)
}

func TestOperatorCaptionEscapesUserInput(t *testing.T) {
	order := &domain.Order{
		TariffText: "1 day — 20₴",
		FullName:   "<b>bold</b> & co",
		BirthDate:  "01.02.1990",
	}
	caption := idPhotoCaption(42, "user<i>", order)
	assert.Contains(t, caption, "&lt;b&gt;bold&lt;/b&gt; &amp; co")
	assert.Contains(t, caption, "@user&lt;i&gt;")
	assert.NotContains(t, caption, "<b>bold</b>")
}

func TestConcurrentProofAndConfirmDoNotRace(t *testing.T) {
	ledger := &fakeLedger{}
	seedOrder(ledger, "42", domain.StatusWaitingPayment)
	notifier := &fakeNotifier{}
	svc := newTestService(ledger, notifier, 10)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.SubmitPaymentProof(context.Background(), 42, "buyer", "file", false)
		}()
	}
	wg.Wait()
	require.NoError(t, svc.ConfirmPayment(context.Background(), 42, "https://example.com/get"))
	assert.Equal(t, domain.StatusCompleted, ledger.records[0].Status)
}

func TestDisplayHandle(t *testing.T) {
	assert.Equal(t, "none", displayHandle(""))
	assert.Equal(t, "none", displayHandle("none"))
	assert.True(t, strings.HasPrefix(displayHandle("buyer"), "@"))
}
