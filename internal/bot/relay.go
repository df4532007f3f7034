package bot

import (
	"fmt"
	"log"
	"strings"
	"time"

	"eclis-registry-bot/internal/form"
	"eclis-registry-bot/internal/queue"
	"eclis-registry-bot/internal/session"
	"eclis-registry-bot/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

const (
	summaryAttempts   = 3
	summaryRetryDelay = 2 * time.Second
)

// Submission is the immutable snapshot handed to the relay once a wizard
// run completes. It outlives the session only for the duration of the relay
// and the archive write.
type Submission struct {
	UserID      int64
	Username    string
	DisplayName string

	Fields  form.Fields
	RawForm string

	Portrait  *session.MediaRef
	Song      *session.MediaRef
	SongCover *session.MediaRef

	TrackingCode string
}

type RelayResult struct {
	Success         bool
	PostedMessageID int
}

func submissionFromSession(sess *session.Session) *Submission {
	return &Submission{
		UserID:       sess.UserID,
		Username:     sess.Username,
		DisplayName:  sess.DisplayName,
		Fields:       sess.Fields,
		RawForm:      sess.RawForm,
		Portrait:     sess.Portrait,
		Song:         sess.Song,
		SongCover:    sess.SongCover,
		TrackingCode: newTrackingCode(),
	}
}

func newTrackingCode() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

// relay posts the submission to the review group: first the textual summary
// with the approve/reject controls, then each media item. Everything goes
// through the shared outbound queue; the summary is retried, media posts
// are best-effort and a failed one does not abort the rest.
func (b *TelegramBot) relay(sub *Submission) RelayResult {
	groupID := b.cfg.ReviewGroupID

	var summaryMessageID int
	summaryTask := b.queue.Enqueue("review summary", func() error {
		var lastErr error
		for attempt := 1; attempt <= summaryAttempts; attempt++ {
			msg := tgbotapi.NewMessage(groupID, b.renderSummary(sub))
			msg.ReplyMarkup = b.reviewKeyboard(sub.UserID)
			sent, err := b.api.Send(msg)
			if err == nil {
				summaryMessageID = sent.MessageID
				return nil
			}
			lastErr = err
			log.Printf("Review summary post attempt %d/%d for user %d failed: %v",
				attempt, summaryAttempts, sub.UserID, err)
			if attempt < summaryAttempts {
				time.Sleep(b.retryDelay)
			}
		}
		return lastErr
	})

	if err := summaryTask.Wait(); err != nil {
		log.Printf("Giving up on review summary for user %d: %v", sub.UserID, err)
		return RelayResult{Success: false}
	}

	media := []struct {
		ref     *session.MediaRef
		caption string
	}{
		{sub.Portrait, b.msg("caption_portrait")},
		{sub.Song, b.msg("caption_song")},
		{sub.SongCover, b.msg("caption_cover")},
	}
	var mediaTasks []*queue.Task
	for _, m := range media {
		if m.ref == nil {
			continue
		}
		ref, caption := m.ref, m.caption
		task := b.queue.Enqueue("review media", func() error {
			_, err := b.api.Send(mediaChattable(groupID, ref, caption))
			return err
		})
		mediaTasks = append(mediaTasks, task)
	}
	for _, t := range mediaTasks {
		if err := t.Wait(); err != nil {
			log.Printf("Failed to relay a media item for user %d: %v", sub.UserID, err)
		}
	}

	return RelayResult{Success: true, PostedMessageID: summaryMessageID}
}

func mediaChattable(chatID int64, ref *session.MediaRef, caption string) tgbotapi.Chattable {
	file := tgbotapi.FileID(ref.FileID)
	switch ref.Kind {
	case session.MediaSticker:
		return tgbotapi.NewSticker(chatID, file)
	case session.MediaAudio:
		audio := tgbotapi.NewAudio(chatID, file)
		audio.Caption = caption
		return audio
	default:
		photo := tgbotapi.NewPhoto(chatID, file)
		photo.Caption = caption
		return photo
	}
}

func (b *TelegramBot) renderSummary(sub *Submission) string {
	submitter := sub.DisplayName
	if sub.Username != "" {
		submitter = "@" + sub.Username
	}
	lines := []string{
		b.msg("review_header"),
		"",
		b.msgf("summary_name", sub.Fields.CharacterName),
		b.msgf("summary_race", sub.Fields.Race),
		b.msgf("summary_birth", sub.Fields.BirthDate),
		b.msgf("summary_parents", sub.Fields.ParentNames),
		b.msgf("summary_subclass", sub.Fields.Subclass),
		"",
		b.msgf("summary_submitted_by", submitter, sub.UserID),
		b.msgf("summary_tracking", sub.TrackingCode),
	}
	return strings.Join(lines, "\n")
}

// reviewKeyboard carries the submitter id in the callback payload so the
// decision handler needs no session.
func (b *TelegramBot) reviewKeyboard(userID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.msg("btn_approve"), fmt.Sprintf("approve:%d", userID)),
			tgbotapi.NewInlineKeyboardButtonData(b.msg("btn_reject"), fmt.Sprintf("reject:%d", userID)),
		),
	)
}

func (b *TelegramBot) archiveSubmission(sub *Submission) error {
	reg := &storage.Registration{
		TrackingCode:  sub.TrackingCode,
		UserID:        sub.UserID,
		Username:      sub.Username,
		DisplayName:   sub.DisplayName,
		CharacterName: sub.Fields.CharacterName,
		Race:          sub.Fields.Race,
		BirthDate:     sub.Fields.BirthDate,
		ParentNames:   sub.Fields.ParentNames,
		Subclass:      sub.Fields.Subclass,
		RawForm:       sub.RawForm,
	}
	if sub.Portrait != nil {
		reg.PortraitFileID = sub.Portrait.FileID
	}
	if sub.Song != nil {
		reg.SongFileID = sub.Song.FileID
	}
	if sub.SongCover != nil {
		reg.CoverFileID = sub.SongCover.FileID
	}
	return b.storage.ArchiveRegistration(reg)
}
