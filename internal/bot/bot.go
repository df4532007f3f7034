package bot

import (
	"fmt"
	"log"
	"sync"
	"time"

	"eclis-registry-bot/config"
	"eclis-registry-bot/internal/form"
	"eclis-registry-bot/internal/localization"
	"eclis-registry-bot/internal/queue"
	"eclis-registry-bot/internal/session"
	"eclis-registry-bot/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotAPI is the slice of the Telegram client the handlers use. It is
// satisfied by *tgbotapi.BotAPI and faked in tests.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type TelegramBot struct {
	api       BotAPI
	cfg       *config.Config
	localizer *localization.Localizer
	sessions  session.Store
	queue     *queue.Queue
	storage   *storage.Storage
	parser    *form.Parser

	// Delay between review-summary post attempts; shrunk in tests.
	retryDelay time.Duration

	certMutex sync.Mutex
	certSeq   int64
}

func NewBot(
	api BotAPI,
	cfg *config.Config,
	localizer *localization.Localizer,
	sessions session.Store,
	relayQueue *queue.Queue,
	store *storage.Storage,
) (*TelegramBot, error) {
	b := &TelegramBot{
		api:        api,
		cfg:        cfg,
		localizer:  localizer,
		sessions:   sessions,
		queue:      relayQueue,
		storage:    store,
		retryDelay: summaryRetryDelay,
	}

	lang := cfg.DefaultLanguage
	labels := [5]string{
		localizer.GetMessage(lang, "label_character_name"),
		localizer.GetMessage(lang, "label_race"),
		localizer.GetMessage(lang, "label_birth_date"),
		localizer.GetMessage(lang, "label_parent_names"),
		localizer.GetMessage(lang, "label_subclass"),
	}
	b.parser = form.NewParser(form.DefaultFields(labels), localizer.GetMessage(lang, "unspecified"))

	approved, err := store.CountByStatus(storage.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("could not seed certificate counter: %w", err)
	}
	b.certSeq = approved

	return b, nil
}

// Run consumes updates until the channel closes.
func (b *TelegramBot) Run(updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		b.HandleUpdate(update)
	}
}

// HandleUpdate dispatches one inbound update. Panics inside handlers are
// caught here: the user gets a generic error, the session is discarded and
// the wizard is left rather than kept half-updated.
func (b *TelegramBot) HandleUpdate(update tgbotapi.Update) {
	userID, chatID := updateOrigin(update)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Handler panic for user %d: %v", userID, r)
			if userID != 0 {
				b.sessions.Delete(userID)
			}
			if chatID != 0 {
				b.sendText(chatID, b.msg("generic_error"))
			}
		}
	}()

	if update.CallbackQuery != nil {
		b.handleCallbackQuery(update.CallbackQuery)
		return
	}
	message := update.Message
	if message == nil || message.From == nil {
		return
	}
	if message.IsCommand() {
		b.handleCommand(message)
		return
	}

	if _, ok := b.sessions.Get(message.From.ID); ok {
		b.handleWizardMessage(message)
		return
	}
	if message.Text == b.msg("btn_create_id") {
		b.startWizard(message.Chat.ID, message.From)
		return
	}
	b.sendText(message.Chat.ID, b.msg("idle_hint"))
}

func (b *TelegramBot) msg(key string) string {
	return b.localizer.GetMessage(b.cfg.DefaultLanguage, key)
}

func (b *TelegramBot) msgf(key string, args ...interface{}) string {
	return b.localizer.GetMessagef(b.cfg.DefaultLanguage, key, args...)
}

func (b *TelegramBot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send message to chat %d: %v", chatID, err)
	}
}

func (b *TelegramBot) nextCertificateNumber() int64 {
	b.certMutex.Lock()
	defer b.certMutex.Unlock()
	b.certSeq++
	return b.certSeq
}

func updateOrigin(update tgbotapi.Update) (userID int64, chatID int64) {
	switch {
	case update.Message != nil:
		if update.Message.From != nil {
			userID = update.Message.From.ID
		}
		chatID = update.Message.Chat.ID
	case update.CallbackQuery != nil:
		if update.CallbackQuery.From != nil {
			userID = update.CallbackQuery.From.ID
		}
		if update.CallbackQuery.Message != nil {
			chatID = update.CallbackQuery.Message.Chat.ID
		}
	}
	return userID, chatID
}

func displayName(user *tgbotapi.User) string {
	if user == nil {
		return ""
	}
	name := user.FirstName
	if user.LastName != "" {
		name += " " + user.LastName
	}
	return name
}
