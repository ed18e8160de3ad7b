package bot

import (
	"errors"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/ordersbot/core/telegram/helpers"
	"github.com/m3rciful/ordersbot/internal/service"
	"github.com/m3rciful/ordersbot/internal/storage"
)

// handleSendReq implements /send_req <client_id> [requisites text].
// Without a custom text the configured requisites are sent.
func (h *handlers) handleSendReq(c tele.Context) error {
	args := c.Args()
	if len(args) < 1 {
		return tghelpers.SendText(c, textUsageSendReq)
	}
	clientID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return tghelpers.SendText(c, textBadClientID)
	}

	requisites := strings.TrimSpace(strings.Join(args[1:], " "))
	if requisites == "" {
		requisites = h.orders.Requisites
	}
	if requisites == "" {
		return tghelpers.SendText(c, textUsageSendReq)
	}

	ctx := tghelpers.BuildContext(c)
	switch err := h.svc.SendRequisites(ctx, clientID, requisites); {
	case err == nil:
		return tghelpers.SendText(c, textRequisitesSent)
	case errors.Is(err, storage.ErrNoOrder):
		return tghelpers.SendText(c, textNoOrderForClient)
	case errors.Is(err, service.ErrClientUnreachable):
		return tghelpers.SendText(c, textClientBlocked)
	default:
		return tghelpers.SendText(c, "Error: "+err.Error())
	}
}

// handleConfirm implements /confirm <client_id> <delivery link>.
func (h *handlers) handleConfirm(c tele.Context) error {
	args := c.Args()
	if len(args) < 2 {
		return tghelpers.SendText(c, textUsageConfirm)
	}
	clientID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return tghelpers.SendText(c, textBadClientID)
	}
	link := strings.TrimSpace(strings.Join(args[1:], " "))

	ctx := tghelpers.BuildContext(c)
	switch err := h.svc.ConfirmPayment(ctx, clientID, link); {
	case err == nil:
		return tghelpers.SendText(c, textOrderConfirmed)
	case errors.Is(err, storage.ErrNoOrder):
		return tghelpers.SendText(c, textNoOrderForClient)
	case errors.Is(err, service.ErrClientUnreachable):
		return tghelpers.SendText(c, textClientBlocked)
	default:
		return tghelpers.SendText(c, "Error: "+err.Error())
	}
}
