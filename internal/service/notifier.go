package service

import "context"

// Format selects the transport markup dialect for outbound messages.
// Escaping for the dialect is the sender's concern; the service only
// picks which dialect a message was written in.
type Format string

const (
	// FormatPlain sends text without a parse mode.
	FormatPlain Format = ""
	// FormatHTML sends text in Telegram HTML parse mode.
	FormatHTML Format = "HTML"
)

// Notifier delivers outbound messages to a chat. Implementations are
// expected to be bounded (no indefinite blocking); a returned error
// never causes an already-applied status change to be rolled back.
type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string, format Format) error
	SendPhoto(ctx context.Context, chatID int64, fileID, caption string, format Format) error
	SendDocument(ctx context.Context, chatID int64, fileID, caption string, format Format) error
}
