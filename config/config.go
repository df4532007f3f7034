package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	TelegramBotToken     string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	ReviewGroupID        int64  `envconfig:"REVIEW_GROUP_ID"    required:"true"`
	AnnounceChannelID    int64  `envconfig:"ANNOUNCE_CHANNEL_ID"`
	DefaultLanguage      string `envconfig:"DEFAULT_LANGUAGE" default:"fa"`
	RelayConcurrency     int    `envconfig:"RELAY_CONCURRENCY" default:"4"`
	SessionIdleMinutes   int    `envconfig:"SESSION_IDLE_MINUTES" default:"45"`
	SweepIntervalMinutes int    `envconfig:"SWEEP_INTERVAL_MINUTES" default:"10"`
	Mode                 string `envconfig:"BOT_MODE" default:"polling"`
	WebhookURL           string `envconfig:"WEBHOOK_URL"`
	ListenAddr           string `envconfig:"LISTEN_ADDR" default:":8080"`
	DatabasePath         string `envconfig:"DATABASE_PATH" default:"eclisbot.db"`
}

func LoadConfig() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, reading from environment variables")
	}

	var cfg Config
	err = envconfig.Process("", &cfg)
	if err != nil {
		log.Fatalf("Failed to process configuration: %v", err)
	}

	if cfg.Mode == "webhook" && cfg.WebhookURL == "" {
		log.Fatalf("BOT_MODE is webhook but WEBHOOK_URL is not set")
	}

	return cfg
}
