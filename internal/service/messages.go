package service

import (
	"fmt"

	"github.com/m3rciful/ordersbot/core/telegram/format"
	"github.com/m3rciful/ordersbot/internal/domain"
)

// Operator-facing captions and client notifications are written in
// HTML parse mode; everything user-supplied goes through EscapeHTML.

func idPhotoCaption(clientID int64, username string, order *domain.Order) string {
	return fmt.Sprintf(
		"🖼️ <b>NEW ORDER (3x4)</b>\n"+
			"Client ID: <code>%d</code>\n"+
			"Username: %s\n"+
			"Tariff: <b>%s</b>\n"+
			"Full name: <b>%s</b>\n"+
			"Date of birth: <b>%s</b>\n\n"+
			"Operator: <code>/send_req %d (requisites)</code>",
		clientID,
		displayHandle(username),
		format.EscapeHTML(order.TariffText),
		format.EscapeHTML(order.FullName),
		format.EscapeHTML(order.BirthDate),
		clientID,
	)
}

func paymentProofCaption(clientID int64, username string) string {
	return fmt.Sprintf(
		"💰 <b>NEW PAYMENT PROOF</b>\n"+
			"Client ID: <code>%d</code>\n"+
			"Username: %s\n"+
			"Confirm with: <code>/confirm %d LINK</code>",
		clientID,
		displayHandle(username),
		clientID,
	)
}

func requisitesMessage(requisites string) string {
	return fmt.Sprintf(
		"💳 <b>Your payment requisites:</b>\n\n<pre>%s</pre>\n\n"+
			"Please send a screenshot of the payment once it is done.",
		format.EscapeHTML(requisites),
	)
}

func deliveryMessage(link string) string {
	return fmt.Sprintf(
		"🥳 <b>Your order has been confirmed!</b>\n\n"+
			"Thank you for the payment. You can download the product below:\n\n"+
			"🔗 <a href=\"%s\">Get the product</a>",
		format.EscapeHTML(link),
	)
}

func displayHandle(username string) string {
	if username == "" || username == domain.UsernameNone {
		return domain.UsernameNone
	}
	return "@" + format.EscapeHTML(username)
}
