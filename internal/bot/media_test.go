package bot

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ordersbot/core/telegram/state"
	"github.com/m3rciful/ordersbot/internal/domain"
	"github.com/m3rciful/ordersbot/internal/service"
	"github.com/m3rciful/ordersbot/internal/storage"
)

const testOperatorChat int64 = -100500

type capturedSend struct {
	kind    string
	chatID  int64
	caption string
	text    string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []capturedSend
}

func (n *recordingNotifier) SendText(ctx context.Context, chatID int64, text string, format service.Format) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, capturedSend{kind: "text", chatID: chatID, text: text})
	return nil
}

func (n *recordingNotifier) SendPhoto(ctx context.Context, chatID int64, fileID, caption string, format service.Format) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, capturedSend{kind: "photo", chatID: chatID, caption: caption})
	return nil
}

func (n *recordingNotifier) SendDocument(ctx context.Context, chatID int64, fileID, caption string, format service.Format) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, capturedSend{kind: "document", chatID: chatID, caption: caption})
	return nil
}

func (n *recordingNotifier) messages() []capturedSend {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]capturedSend, len(n.sent))
	copy(out, n.sent)
	return out
}

// fakeTeleContext implements just enough of tele.Context for the media
// handler; unimplemented methods panic via the embedded nil interface.
type fakeTeleContext struct {
	tele.Context
	msg     *tele.Message
	sender  *tele.User
	store   map[string]any
	replies []string
}

func newFakeTeleContext(sender *tele.User, msg *tele.Message) *fakeTeleContext {
	return &fakeTeleContext{msg: msg, sender: sender, store: map[string]any{}}
}

func (f *fakeTeleContext) Message() *tele.Message { return f.msg }
func (f *fakeTeleContext) Sender() *tele.User     { return f.sender }

func (f *fakeTeleContext) Chat() *tele.Chat {
	if f.msg == nil {
		return nil
	}
	return f.msg.Chat
}

func (f *fakeTeleContext) Update() tele.Update { return tele.Update{ID: 1, Message: f.msg} }

func (f *fakeTeleContext) Get(key string) any      { return f.store[key] }
func (f *fakeTeleContext) Set(key string, val any) { f.store[key] = val }

func (f *fakeTeleContext) Send(what any, _ ...any) error {
	if text, ok := what.(string); ok {
		f.replies = append(f.replies, text)
	}
	return nil
}

func newMediaHarness(t *testing.T) (*handlers, *storage.FileLedger, *recordingNotifier) {
	t.Helper()
	ledger := storage.NewFileLedger(filepath.Join(t.TempDir(), "orders_data.json"), time.UTC)
	notifier := &recordingNotifier{}
	svc := service.New(service.Options{
		Ledger:         ledger,
		Notifier:       notifier,
		Catalog:        domain.DefaultCatalog(),
		OperatorChatID: testOperatorChat,
		HourlyLimit:    10,
	})
	return &handlers{svc: svc, sessions: state.NewMemoryManager(), orders: OrdersConfig{OperatorChatID: testOperatorChat}}, ledger, notifier
}

func seedLedgerOrder(t *testing.T, ledger *storage.FileLedger, status domain.Status) {
	t.Helper()
	require.NoError(t, ledger.Append(context.Background(), domain.Order{
		ClientID:        "42",
		Username:        "buyer",
		Status:          status,
		CreatedAt:       time.Now(),
		StatusUpdatedAt: time.Now(),
		TariffKey:       "1_day",
		TariffText:      "1 day — 20₴",
		FullName:        "John Doe",
		BirthDate:       "01.02.1990",
	}))
}

func mediaUser() *tele.User { return &tele.User{ID: 42, Username: "buyer"} }

func photoMessage() *tele.Message {
	return &tele.Message{
		Photo: &tele.Photo{File: tele.File{FileID: "file-1"}},
		Chat:  &tele.Chat{ID: 42},
	}
}

func documentMessage() *tele.Message {
	return &tele.Message{
		Document: &tele.Document{File: tele.File{FileID: "doc-1"}},
		Chat:     &tele.Chat{ID: 42},
	}
}

func TestMediaIDPhotoWhileWaitingReq(t *testing.T) {
	h, ledger, notifier := newMediaHarness(t)
	seedLedgerOrder(t, ledger, domain.StatusWaitingReq)
	h.sessions.SetState(42, stateAwaitingPhoto)

	c := newFakeTeleContext(mediaUser(), photoMessage())
	require.NoError(t, h.handleMedia(c))

	msgs := notifier.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "photo", msgs[0].kind)
	assert.Equal(t, testOperatorChat, msgs[0].chatID)
	assert.Contains(t, msgs[0].caption, "/send_req 42")

	current, err := ledger.FindCurrent(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaitingPayment, current.Status)
	assert.False(t, h.sessions.InProgress(42))
	assert.Contains(t, c.replies, textPhotoAccepted)
}

func TestMediaPhotoAfterEarlyRequisitesIsProof(t *testing.T) {
	h, ledger, notifier := newMediaHarness(t)
	// Operator sent requisites before the photo arrived: the order
	// moved to waiting_payment while the session still awaits a photo.
	seedLedgerOrder(t, ledger, domain.StatusWaitingPayment)
	h.sessions.SetState(42, stateAwaitingPhoto)

	c := newFakeTeleContext(mediaUser(), photoMessage())
	require.NoError(t, h.handleMedia(c))

	msgs := notifier.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "photo", msgs[0].kind)
	assert.Contains(t, msgs[0].caption, "/confirm 42")

	current, err := ledger.FindCurrent(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaitingConfirm, current.Status)
	assert.False(t, h.sessions.InProgress(42))
	assert.Contains(t, c.replies, textProofAccepted)
}

func TestMediaDocumentWhileAwaitingIDPhoto(t *testing.T) {
	h, ledger, notifier := newMediaHarness(t)
	seedLedgerOrder(t, ledger, domain.StatusWaitingReq)
	h.sessions.SetState(42, stateAwaitingPhoto)

	c := newFakeTeleContext(mediaUser(), documentMessage())
	require.NoError(t, h.handleMedia(c))

	assert.Empty(t, notifier.messages())
	current, err := ledger.FindCurrent(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaitingReq, current.Status)
	assert.Contains(t, c.replies, textExpectPhoto)
}

func TestMediaProofDocumentWhileWaitingConfirm(t *testing.T) {
	h, ledger, notifier := newMediaHarness(t)
	seedLedgerOrder(t, ledger, domain.StatusWaitingConfirm)

	c := newFakeTeleContext(mediaUser(), documentMessage())
	require.NoError(t, h.handleMedia(c))

	msgs := notifier.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "document", msgs[0].kind)
	assert.Contains(t, c.replies, textProofAccepted)
}

func TestMediaWithoutOrderPromptsStartOver(t *testing.T) {
	h, _, notifier := newMediaHarness(t)

	c := newFakeTeleContext(mediaUser(), photoMessage())
	require.NoError(t, h.handleMedia(c))

	assert.Empty(t, notifier.messages())
	assert.Contains(t, c.replies, textStartOver)
}

func TestMediaLostRecordRestartsCollection(t *testing.T) {
	h, _, notifier := newMediaHarness(t)
	h.sessions.SetState(42, stateAwaitingPhoto)

	c := newFakeTeleContext(mediaUser(), photoMessage())
	require.NoError(t, h.handleMedia(c))

	assert.Empty(t, notifier.messages())
	assert.Equal(t, stateAwaitingFio, h.sessions.GetState(42))
	assert.Contains(t, c.replies, textAskFullName)
}
