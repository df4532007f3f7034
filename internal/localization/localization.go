package localization

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
)

const fallbackLang = "en"

// Localizer resolves message keys against JSON locale files. Missing keys
// fall back to English, then to the key itself so a broken locale never
// silences the bot.
type Localizer struct {
	messages map[string]map[string]string
}

func NewLocalizer(dir fs.FS) *Localizer {
	messages := make(map[string]map[string]string)

	files, err := fs.ReadDir(dir, "locales")
	if err != nil {
		log.Fatalf("Failed to read locales directory: %v", err)
	}

	for _, file := range files {
		if filepath.Ext(file.Name()) != ".json" {
			continue
		}
		lang := file.Name()[:len(file.Name())-len(".json")]
		content, err := fs.ReadFile(dir, filepath.Join("locales", file.Name()))
		if err != nil {
			log.Printf("Failed to read locale file %s: %v", file.Name(), err)
			continue
		}

		var langMessages map[string]string
		if err := json.Unmarshal(content, &langMessages); err != nil {
			log.Printf("Failed to parse locale file %s: %v", file.Name(), err)
			continue
		}
		messages[lang] = langMessages
		log.Printf("Loaded language: %s", lang)
	}

	return &Localizer{messages: messages}
}

func (l *Localizer) GetMessage(lang, key string) string {
	if langMessages, ok := l.messages[lang]; ok {
		if message, ok := langMessages[key]; ok {
			return message
		}
	}

	if defaultMessages, ok := l.messages[fallbackLang]; ok {
		if message, ok := defaultMessages[key]; ok {
			return message
		}
	}

	return key
}

// GetMessagef is GetMessage followed by Sprintf, for the handful of
// prompts that carry user data.
func (l *Localizer) GetMessagef(lang, key string, args ...interface{}) string {
	return fmt.Sprintf(l.GetMessage(lang, key), args...)
}
