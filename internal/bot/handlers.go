package bot

import (
	"errors"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ordersbot/core/logger"
	"github.com/m3rciful/ordersbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/ordersbot/core/telegram/helpers"
	"github.com/m3rciful/ordersbot/core/telegram/keyboard"
	"github.com/m3rciful/ordersbot/core/telegram/state"
	"github.com/m3rciful/ordersbot/internal/service"
	"log/slog"
)

// Callback keys used by the purchase conversation.
const (
	cbMenu   = "start_menu"
	cbBuy    = "buy_product"
	cbTariff = "tariff"
)

// handlers binds the Telegram surface to the order service. All status
// decisions live in the service; handlers only translate updates and
// error values into replies.
type handlers struct {
	svc      *service.Service
	sessions state.Manager
	orders   OrdersConfig
}

// handleStart resets any in-flight conversation and shows the entry menu.
func (h *handlers) handleStart(c tele.Context) error {
	h.sessions.Clear(c.Sender().ID)
	markup := keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: btnContinue, Unique: cbMenu},
	})
	return tghelpers.SendText(c, textGreeting, &tele.SendOptions{ReplyMarkup: markup})
}

func (h *handlers) handleMenu(c tele.Context) error {
	markup := keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: btnBuy, Unique: cbBuy},
	})
	return c.EditOrSend(textMenu, markup)
}

func (h *handlers) handleBuy(c tele.Context) error {
	catalog := h.svc.Catalog()
	buttons := make([]keyboard.InlineBtn, 0, len(catalog))
	for _, t := range catalog {
		buttons = append(buttons, keyboard.InlineBtn{Text: t.Text, Unique: cbTariff, Data: t.Key})
	}
	return c.EditOrSend(textPickTariff, keyboard.InlineButtons(buttons))
}

// handleTariff runs the admission check and opens the data-collection
// conversation on success.
func (h *handlers) handleTariff(c tele.Context) error {
	user := c.Sender()
	ctx := tghelpers.BuildContext(c)
	key := callbacks.CallbackPayload(c)

	tariff, err := h.svc.SelectTariff(ctx, user.ID, key)
	switch {
	case errors.Is(err, service.ErrUnknownTariff):
		return tghelpers.SendText(c, textUnknownTariff)
	case errors.Is(err, service.ErrLimitExceeded):
		return tghelpers.SendText(c, textRateLimited)
	case err != nil:
		return tghelpers.SendText(c, textRetryLater)
	}

	h.sessions.SetTemp(user.ID, tempTariffKey, tariff.Key)
	h.sessions.SetState(user.ID, stateAwaitingFio)
	logger.SVCSessions.Debug("conversation started",
		slog.String("event", "sessions.start"),
		slog.Int64("user_id", user.ID),
		slog.String("tariff", tariff.Key),
	)
	return tghelpers.SendText(c, textAskFullName)
}

// handleAdminReject answers operator commands issued outside the
// operator chat.
func (h *handlers) handleAdminReject(c tele.Context) error {
	return tghelpers.SendText(c, textAdminOnlyHint)
}
