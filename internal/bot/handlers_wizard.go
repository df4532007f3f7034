package bot

import (
	"errors"
	"log"
	"strings"

	"eclis-registry-bot/internal/form"
	"eclis-registry-bot/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleWizardMessage advances one user's wizard run by one step at most.
// Invalid input re-prompts for the same step without touching the session's
// collected data; the cancel interrupt is honored at every step.
func (b *TelegramBot) handleWizardMessage(message *tgbotapi.Message) {
	userID := message.From.ID
	sess, ok := b.sessions.Get(userID)
	if !ok {
		return
	}

	att := decodeAttachment(message)
	if att.kind == attachText && att.text == b.msg("btn_cancel") {
		b.sessions.Delete(userID)
		b.sendText(message.Chat.ID, b.msg("cancelled"))
		return
	}

	b.sessions.Touch(userID)
	switch sess.Step {
	case session.StepAwaitingForm:
		b.stepForm(sess, att)
	case session.StepAwaitingPortrait:
		b.stepPortrait(sess, att)
	case session.StepAwaitingSong:
		b.stepSong(sess, att)
	case session.StepAwaitingSongCover:
		b.stepSongCover(sess, att)
	default:
		log.Printf("User %d in unexpected step %s, discarding session", userID, sess.Step)
		b.sessions.Delete(userID)
		b.sendText(sess.ChatID, b.msg("generic_error"))
	}
}

func (b *TelegramBot) stepForm(sess *session.Session, att incomingAttachment) {
	if att.kind != attachText {
		b.sendText(sess.ChatID, b.msgf("form_invalid_missing", b.requiredLabelList(nil)))
		return
	}
	if err := b.parser.Validate(att.text); err != nil {
		var verr *form.ValidationError
		if errors.As(err, &verr) {
			b.sendText(sess.ChatID, b.msgf("form_invalid_missing", b.requiredLabelList(verr)))
		} else {
			b.sendText(sess.ChatID, b.msg("generic_error"))
		}
		return
	}

	sess.Fields = b.parser.Parse(att.text)
	sess.RawForm = att.text
	sess.Step = session.StepAwaitingPortrait
	b.sendText(sess.ChatID, b.msg("ask_portrait"))
}

func (b *TelegramBot) stepPortrait(sess *session.Session, att incomingAttachment) {
	var ref *session.MediaRef
	switch att.kind {
	case attachSticker:
		ref = &session.MediaRef{FileID: att.fileID, Kind: session.MediaSticker}
	case attachPhoto:
		ref = &session.MediaRef{FileID: att.fileID, Kind: session.MediaPhoto}
	default:
		b.sendText(sess.ChatID, b.msg("err_portrait_type"))
		return
	}
	sess.Portrait = ref
	sess.Step = session.StepAwaitingSong
	b.sendText(sess.ChatID, b.msg("ask_song"))
}

func (b *TelegramBot) stepSong(sess *session.Session, att incomingAttachment) {
	if att.kind != attachAudio {
		b.sendText(sess.ChatID, b.msg("err_song_type"))
		return
	}
	sess.Song = &session.MediaRef{FileID: att.fileID, Kind: session.MediaAudio}
	sess.Step = session.StepAwaitingSongCover
	b.sendText(sess.ChatID, b.msg("ask_cover"))
}

// stepSongCover closes out the run. The relay is attempted before the user
// hears anything, so a relay failure surfaces as a failure instead of a
// false success. The session is gone either way; there is no retained draft.
func (b *TelegramBot) stepSongCover(sess *session.Session, att incomingAttachment) {
	if att.kind != attachPhoto {
		b.sendText(sess.ChatID, b.msg("err_cover_type"))
		return
	}
	sess.SongCover = &session.MediaRef{FileID: att.fileID, Kind: session.MediaPhoto}
	sess.Step = session.StepCompleted
	b.sessions.Delete(sess.UserID)

	sub := submissionFromSession(sess)
	result := b.relay(sub)
	if !result.Success {
		b.sendText(sess.ChatID, b.msg("submitted_failure"))
		return
	}

	if err := b.archiveSubmission(sub); err != nil {
		log.Printf("CRITICAL: Failed to archive registration %s for user %d: %v", sub.TrackingCode, sub.UserID, err)
	}
	b.sendText(sess.ChatID, b.msgf("submitted_success", sub.TrackingCode))
}

// requiredLabelList renders the field labels to show in a validation error.
// With no specific report (wrong input kind or an empty-form rejection) it
// lists every required label.
func (b *TelegramBot) requiredLabelList(verr *form.ValidationError) string {
	var labels []string
	if verr != nil && len(verr.Missing) > 0 {
		labels = verr.Missing
	} else {
		labels = []string{
			b.msg("label_character_name"),
			b.msg("label_race"),
			b.msg("label_birth_date"),
			b.msg("label_parent_names"),
		}
	}
	var sb strings.Builder
	for _, l := range labels {
		sb.WriteString("- ")
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
