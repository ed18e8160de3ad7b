package bot

import (
	"context"
	"fmt"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ordersbot/internal/service"
)

// teleNotifier adapts a running telebot instance to the service.Notifier
// interface. The bot pointer is bound in OnStart, after the telegram
// runtime has constructed it.
type teleNotifier struct {
	bot atomic.Pointer[tele.Bot]
}

func (n *teleNotifier) Bind(b *tele.Bot) {
	n.bot.Store(b)
}

func (n *teleNotifier) sender() (*tele.Bot, error) {
	b := n.bot.Load()
	if b == nil {
		return nil, fmt.Errorf("notifier: bot not started")
	}
	return b, nil
}

func sendOptions(format service.Format) *tele.SendOptions {
	opts := &tele.SendOptions{}
	if format == service.FormatHTML {
		opts.ParseMode = tele.ModeHTML
	}
	return opts
}

func (n *teleNotifier) SendText(ctx context.Context, chatID int64, text string, format service.Format) error {
	b, err := n.sender()
	if err != nil {
		return err
	}
	_, err = b.Send(tele.ChatID(chatID), text, sendOptions(format))
	return err
}

func (n *teleNotifier) SendPhoto(ctx context.Context, chatID int64, fileID, caption string, format service.Format) error {
	b, err := n.sender()
	if err != nil {
		return err
	}
	photo := &tele.Photo{File: tele.File{FileID: fileID}, Caption: caption}
	_, err = b.Send(tele.ChatID(chatID), photo, sendOptions(format))
	return err
}

func (n *teleNotifier) SendDocument(ctx context.Context, chatID int64, fileID, caption string, format service.Format) error {
	b, err := n.sender()
	if err != nil {
		return err
	}
	doc := &tele.Document{File: tele.File{FileID: fileID}, Caption: caption}
	_, err = b.Send(tele.ChatID(chatID), doc, sendOptions(format))
	return err
}
