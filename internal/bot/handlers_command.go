package bot

import (
	"errors"
	"log"
	"strings"
	"time"

	"eclis-registry-bot/internal/session"
	"eclis-registry-bot/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *TelegramBot) handleCommand(message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStartCommand(message)
	case "register":
		b.startWizard(message.Chat.ID, message.From)
	case "cancel":
		b.handleCancelCommand(message)
	case "help":
		b.sendText(message.Chat.ID, b.msg("help_message"))
	case "status":
		b.handleStatusCommand(message)
	}
}

// handleStartCommand returns the user to idle: any in-progress wizard run is
// dropped and the welcome menu is shown.
func (b *TelegramBot) handleStartCommand(message *tgbotapi.Message) {
	b.sessions.Delete(message.From.ID)

	msg := tgbotapi.NewMessage(message.Chat.ID, b.msgf("welcome_message", displayName(message.From)))
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.msg("btn_create_id"), "create_id"),
		),
	)
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send welcome message: %v", err)
	}
}

func (b *TelegramBot) handleCancelCommand(message *tgbotapi.Message) {
	userID := message.From.ID
	if _, ok := b.sessions.Get(userID); !ok {
		b.sendText(message.Chat.ID, b.msg("cancel_nothing"))
		return
	}
	b.sessions.Delete(userID)
	b.sendText(message.Chat.ID, b.msg("cancelled"))
}

func (b *TelegramBot) handleStatusCommand(message *tgbotapi.Message) {
	code := strings.TrimSpace(message.CommandArguments())
	if code == "" {
		b.sendText(message.Chat.ID, b.msg("status_usage"))
		return
	}
	reg, err := b.storage.RegistrationByCode(code)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("Failed to look up registration %q: %v", code, err)
		}
		b.sendText(message.Chat.ID, b.msg("status_not_found"))
		return
	}
	b.sendText(message.Chat.ID, b.msgf("status_line", reg.TrackingCode, b.msg("status_"+reg.Status)))
}

// startWizard opens a fresh session, replacing any existing one for the
// same user, and hands out the blank form.
func (b *TelegramBot) startWizard(chatID int64, from *tgbotapi.User) {
	now := time.Now()
	b.sessions.Put(&session.Session{
		UserID:       from.ID,
		ChatID:       chatID,
		Username:     from.UserName,
		DisplayName:  displayName(from),
		Step:         session.StepAwaitingForm,
		CreatedAt:    now,
		LastActivity: now,
	})

	b.sendText(chatID, b.msg("form_instructions"))
	b.sendText(chatID, b.msg("form_template"))
}
