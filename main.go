package main

import (
	"embed"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"eclis-registry-bot/config"
	"eclis-registry-bot/internal/bot"
	"eclis-registry-bot/internal/localization"
	"eclis-registry-bot/internal/queue"
	"eclis-registry-bot/internal/scheduler"
	"eclis-registry-bot/internal/session"
	"eclis-registry-bot/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

//go:embed locales
var localeFiles embed.FS

func main() {
	log.Println("Starting Eclis Registry Bot...")

	cfg := config.LoadConfig()

	dbStorage, err := storage.NewStorage(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStorage.Close()

	localizer := localization.NewLocalizer(localeFiles)
	sessions := session.NewMemoryStore()

	appScheduler, err := scheduler.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	idleTimeout := time.Duration(cfg.SessionIdleMinutes) * time.Minute
	appScheduler.AddJob(time.Duration(cfg.SweepIntervalMinutes)*time.Minute, func() {
		if evicted := sessions.Sweep(idleTimeout); evicted > 0 {
			log.Printf("Idle sweep evicted %d abandoned session(s)", evicted)
		}
	})

	relayQueue := queue.New(cfg.RelayConcurrency)
	defer relayQueue.Close()

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatalf("Failed to connect to Telegram: %v", err)
	}
	log.Printf("Authorized on account %s", api.Self.UserName)

	registryBot, err := bot.NewBot(api, &cfg, localizer, sessions, relayQueue, dbStorage)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	appScheduler.Start()
	defer appScheduler.Stop()

	var updates tgbotapi.UpdatesChannel
	if cfg.Mode == "webhook" {
		wh, err := tgbotapi.NewWebhook(cfg.WebhookURL)
		if err != nil {
			log.Fatalf("Failed to build webhook config: %v", err)
		}
		if _, err := api.Request(wh); err != nil {
			log.Fatalf("Failed to register webhook: %v", err)
		}
		updates = api.ListenForWebhook("/webhook")
		log.Printf("Webhook registered at %s", cfg.WebhookURL)
	} else {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates = api.GetUpdatesChan(u)
		log.Println("Polling for updates")
	}

	go serveHTTP(cfg.ListenAddr, sessions)

	log.Println("Bot is running...")
	registryBot.Run(updates)
}

// serveHTTP exposes the liveness endpoint and, in webhook mode, the update
// route registered by ListenForWebhook on the default mux.
func serveHTTP(addr string, sessions *session.MemoryStore) {
	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":          "ok",
			"service":         "eclis-registry-bot",
			"active_sessions": sessions.Len(),
		})
	})
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Printf("HTTP server stopped: %v", err)
	}
}
