package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type attachmentKind int

const (
	attachNone attachmentKind = iota
	attachText
	attachSticker
	attachPhoto
	attachAudio
)

// incomingAttachment is the decoded payload of one message: exactly one
// kind, decoded once at the transport boundary so step handlers can match
// on it instead of probing raw message fields.
type incomingAttachment struct {
	kind   attachmentKind
	text   string
	fileID string
}

func decodeAttachment(message *tgbotapi.Message) incomingAttachment {
	switch {
	case message.Sticker != nil:
		return incomingAttachment{kind: attachSticker, fileID: message.Sticker.FileID}
	case len(message.Photo) > 0:
		// Telegram sends every size; the last entry is the largest.
		return incomingAttachment{kind: attachPhoto, fileID: message.Photo[len(message.Photo)-1].FileID}
	case message.Audio != nil:
		return incomingAttachment{kind: attachAudio, fileID: message.Audio.FileID}
	case message.Text != "":
		return incomingAttachment{kind: attachText, text: message.Text}
	}
	return incomingAttachment{kind: attachNone}
}
