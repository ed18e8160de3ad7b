package bot

import (
	"errors"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ordersbot/core/logger"
	tghelpers "github.com/m3rciful/ordersbot/core/telegram/helpers"
	"github.com/m3rciful/ordersbot/internal/domain"
	"github.com/m3rciful/ordersbot/internal/service"
	"github.com/m3rciful/ordersbot/internal/storage"
	"log/slog"
)

// handleMedia receives every photo and document update. While the
// conversation waits for the ID photo the update is treated as one;
// otherwise it is treated as payment proof for the current order.
func (h *handlers) handleMedia(c tele.Context) error {
	msg := c.Message()
	if msg == nil || c.Sender() == nil {
		return nil
	}
	user := c.Sender()
	ctx := tghelpers.BuildContext(c)

	if h.sessions.GetState(user.ID) == stateAwaitingPhoto {
		status, err := h.svc.CurrentStatus(ctx, user.ID)
		switch {
		case errors.Is(err, storage.ErrNoOrder):
			// Record lost: restart data collection.
			h.sessions.SetState(user.ID, stateAwaitingFio)
			return tghelpers.SendText(c, textAskFullName)
		case err != nil:
			return tghelpers.SendText(c, textRetryLater)
		}

		// The order may have moved on while the photo was awaited
		// (operator sent requisites early); only waiting_req still
		// expects the ID photo, anything later takes the proof path.
		if status == domain.StatusWaitingReq {
			if msg.Photo == nil {
				return tghelpers.SendText(c, textExpectPhoto)
			}
			err := h.svc.SubmitIDPhoto(ctx, user.ID, user.Username, msg.Photo.FileID)
			switch {
			case err == nil:
				h.sessions.Clear(user.ID)
				logger.SVCSessions.Debug("conversation finished",
					slog.String("event", "sessions.finish"),
					slog.Int64("user_id", user.ID),
				)
				return tghelpers.SendText(c, textPhotoAccepted)
			case errors.Is(err, service.ErrIncompleteOrder):
				h.sessions.SetState(user.ID, stateAwaitingFio)
				return tghelpers.SendText(c, textAskFullName)
			case errors.Is(err, service.ErrOperatorUnreachable):
				return tghelpers.SendText(c, textOperatorDown)
			case errors.Is(err, service.ErrWrongStage):
				h.sessions.Clear(user.ID)
				return tghelpers.SendText(c, textStartOver)
			}
			return tghelpers.SendText(c, textRetryLater)
		}
		h.sessions.Clear(user.ID)
	}

	status, err := h.svc.CurrentStatus(ctx, user.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNoOrder) {
			return tghelpers.SendText(c, textStartOver)
		}
		return tghelpers.SendText(c, textRetryLater)
	}
	if status != domain.StatusWaitingPayment && status != domain.StatusWaitingConfirm {
		return tghelpers.SendText(c, textStartOver)
	}

	fileID, isDocument := mediaFileID(msg)
	if fileID == "" {
		return nil
	}
	if err := h.svc.SubmitPaymentProof(ctx, user.ID, user.Username, fileID, isDocument); err != nil {
		switch {
		case errors.Is(err, storage.ErrNoOrder), errors.Is(err, service.ErrWrongStage):
			return tghelpers.SendText(c, textStartOver)
		case errors.Is(err, service.ErrOperatorUnreachable):
			return tghelpers.SendText(c, textOperatorDown)
		}
		return tghelpers.SendText(c, textRetryLater)
	}
	return tghelpers.SendText(c, textProofAccepted)
}

func mediaFileID(msg *tele.Message) (string, bool) {
	if msg.Photo != nil {
		return msg.Photo.FileID, false
	}
	if msg.Document != nil {
		return msg.Document.FileID, true
	}
	return "", false
}
