package bot

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"eclis-registry-bot/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *TelegramBot) handleCallbackQuery(callback *tgbotapi.CallbackQuery) {
	parts := strings.SplitN(callback.Data, ":", 2)
	action := parts[0]
	var data string
	if len(parts) > 1 {
		data = parts[1]
	}

	callbackAns := tgbotapi.NewCallback(callback.ID, "")
	switch action {
	case "create_id":
		if callback.Message != nil && callback.From != nil {
			b.startWizard(callback.Message.Chat.ID, callback.From)
		}
	case "approve":
		callbackAns.Text = b.handleDecision(callback, data, storage.StatusApproved)
	case "reject":
		callbackAns.Text = b.handleDecision(callback, data, storage.StatusRejected)
	}

	if _, err := b.api.Request(callbackAns); err != nil {
		log.Printf("Failed to answer callback query: %v", err)
	}
}

// handleDecision resolves one moderator click and returns the callback
// answer text. Resolution goes through the registration log, so a second
// click on an already-decided item finds nothing pending and does nothing.
func (b *TelegramBot) handleDecision(callback *tgbotapi.CallbackQuery, data, status string) string {
	targetUserID, err := strconv.ParseInt(data, 10, 64)
	if err != nil {
		log.Printf("Malformed decision payload %q: %v", callback.Data, err)
		return b.msg("callback_error")
	}

	reg, err := b.storage.ResolvePending(targetUserID, status)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return b.msg("callback_already_resolved")
		}
		log.Printf("Failed to resolve registration for user %d: %v", targetUserID, err)
		return b.msg("callback_error")
	}

	b.markReviewMessage(callback, status)

	switch status {
	case storage.StatusApproved:
		b.sendText(targetUserID, b.msg("user_approved_note"))
		b.announceApproval(reg)
	case storage.StatusRejected:
		b.sendText(targetUserID, b.msg("user_rejected_note"))
	}
	return b.msg("callback_resolved")
}

// markReviewMessage appends the decision marker to the review post, which
// also drops the approve/reject buttons.
func (b *TelegramBot) markReviewMessage(callback *tgbotapi.CallbackQuery, status string) {
	if callback.Message == nil {
		return
	}
	markerKey := "approved_marker"
	if status == storage.StatusRejected {
		markerKey = "rejected_marker"
	}
	edit := tgbotapi.NewEditMessageText(
		callback.Message.Chat.ID,
		callback.Message.MessageID,
		callback.Message.Text+"\n\n"+b.msg(markerKey),
	)
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("Failed to mark review message %d: %v", callback.Message.MessageID, err)
	}
}

func (b *TelegramBot) announceApproval(reg *storage.Registration) {
	if b.cfg.AnnounceChannelID == 0 {
		return
	}
	number := b.nextCertificateNumber()
	b.sendText(b.cfg.AnnounceChannelID, b.msgf("announce_message", number, reg.CharacterName))
}
