package bot

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/ordersbot/core/telegram/helpers"
	"github.com/m3rciful/ordersbot/core/telegram/state"
)

// Conversation states for the data-collection dialog.
const (
	stateAwaitingFio   state.State = "awaiting_fio"
	stateAwaitingDob   state.State = "awaiting_dob"
	stateAwaitingPhoto state.State = "awaiting_photo"
)

// Temp-data keys kept in the session between steps.
const (
	tempTariffKey = "tariff_key"
	tempFullName  = "fio"
)

func (h *handlers) registerFSM() {
	state.RegisterHandler(stateAwaitingFio, h.handleFullName)
	state.RegisterHandler(stateAwaitingDob, h.handleBirthDate)
	state.RegisterHandler(stateAwaitingPhoto, h.handlePhotoReminder)
}

func (h *handlers) handleFullName(c tele.Context) error {
	user := c.Sender()
	fullName := strings.TrimSpace(c.Text())
	if fullName == "" {
		return tghelpers.SendText(c, textAskFullName)
	}
	h.sessions.SetTemp(user.ID, tempFullName, fullName)
	h.sessions.SetState(user.ID, stateAwaitingDob)
	return tghelpers.SendText(c, textAskBirthDate)
}

// handleBirthDate closes data collection: the order record is appended
// here, before the photo step, so the operator sees full details on the
// photo caption.
func (h *handlers) handleBirthDate(c tele.Context) error {
	user := c.Sender()
	ctx := tghelpers.BuildContext(c)

	birthDate := strings.TrimSpace(c.Text())
	if birthDate == "" {
		return tghelpers.SendText(c, textAskBirthDate)
	}

	tariffKey, _ := h.sessions.GetTemp(user.ID, tempTariffKey)
	fullName, _ := h.sessions.GetTemp(user.ID, tempFullName)
	key, _ := tariffKey.(string)
	fio, _ := fullName.(string)

	if err := h.svc.CreateOrder(ctx, user.ID, user.Username, key, fio, birthDate); err != nil {
		h.sessions.Clear(user.ID)
		return tghelpers.SendText(c, textRetryLater)
	}

	h.sessions.SetState(user.ID, stateAwaitingPhoto)
	return tghelpers.SendText(c, textAskPhoto)
}

// handlePhotoReminder answers text sent while a photo is expected.
func (h *handlers) handlePhotoReminder(c tele.Context) error {
	return tghelpers.SendText(c, textAskPhoto)
}
