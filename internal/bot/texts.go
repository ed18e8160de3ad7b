package bot

// User-facing copy for the purchase conversation.
const (
	textGreeting = "👋 Hello! This bot takes purchase orders and hands them to an operator.\n\nPress the button below to continue."

	textMenu = "🛍️ Available product:\n\n• Access subscription\n\nPress the button to pick a tariff."

	textPickTariff = "💳 Pick a tariff:"

	textAskFullName  = "📝 Send your full name (as in your documents)."
	textAskBirthDate = "📅 Now send your date of birth (DD.MM.YYYY)."
	textAskPhoto     = "🖼️ Now send a 3x4 ID photo as a regular photo message."

	textPhotoAccepted = "✅ Photo received. The operator will send payment requisites shortly."
	textProofAccepted = "✅ Payment proof received. The operator will confirm it shortly."

	textRateLimited   = "⏳ Too many new requests right now. Please try again within an hour."
	textUnknownTariff = "Unknown tariff, please pick one from the menu."
	textExpectPhoto   = "Please send the ID photo as a photo message, not as a file."
	textStartOver     = "Please start with /start and place an order first."
	textRetryLater    = "⚠️ Could not save your order, please try again later."
	textOperatorDown  = "⚠️ Could not reach the operator, please resend the photo later."

	btnContinue = "➡️ Continue"
	btnBuy      = "🛒 Buy"
)

// Operator-facing replies for admin commands.
const (
	textAdminOnlyHint    = "This command only works in the operator chat."
	textUsageSendReq     = "Usage: /send_req <client_id> <requisites text>"
	textUsageConfirm     = "Usage: /confirm <client_id> <delivery link>"
	textBadClientID      = "Client id must be a number."
	textNoOrderForClient = "No order found for this client."
	textRequisitesSent   = "✅ Requisites sent, order moved to waiting_payment."
	textOrderConfirmed   = "✅ Payment confirmed, order completed."
	textClientBlocked    = "❌ Status updated, but the client could not be reached."
)
