package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(userID int64) *Session {
	now := time.Now()
	return &Session{
		UserID:       userID,
		ChatID:       userID,
		Step:         StepAwaitingForm,
		CreatedAt:    now,
		LastActivity: now,
	}
}

func TestPutGetDelete(t *testing.T) {
	store := NewMemoryStore()

	_, ok := store.Get(1)
	assert.False(t, ok)

	store.Put(newSession(1))
	got, ok := store.Get(1)
	require.True(t, ok)
	assert.Equal(t, int64(1), got.UserID)

	store.Delete(1)
	_, ok = store.Get(1)
	assert.False(t, ok)
}

func TestPutReplacesExistingSession(t *testing.T) {
	store := NewMemoryStore()

	first := newSession(7)
	first.Step = StepAwaitingSong
	first.RawForm = "old form"
	store.Put(first)

	store.Put(newSession(7))

	got, ok := store.Get(7)
	require.True(t, ok)
	assert.Equal(t, StepAwaitingForm, got.Step)
	assert.Empty(t, got.RawForm)
	assert.Equal(t, 1, store.Len())
}

func TestSweepEvictsOnlyIdleSessions(t *testing.T) {
	store := NewMemoryStore()

	stale := newSession(1)
	stale.LastActivity = time.Now().Add(-2 * time.Hour)
	store.Put(stale)

	fresh := newSession(2)
	store.Put(fresh)

	evicted := store.Sweep(time.Hour)
	assert.Equal(t, 1, evicted)

	_, ok := store.Get(1)
	assert.False(t, ok)
	_, ok = store.Get(2)
	assert.True(t, ok)
}

func TestTouchRefreshesIdleClock(t *testing.T) {
	store := NewMemoryStore()

	stale := newSession(1)
	stale.LastActivity = time.Now().Add(-2 * time.Hour)
	store.Put(stale)

	store.Touch(1)

	assert.Zero(t, store.Sweep(time.Hour))
	_, ok := store.Get(1)
	assert.True(t, ok)

	// Touching an absent user is a no-op.
	store.Touch(999)
}

func TestTouchAndSweepAreConcurrencySafe(t *testing.T) {
	store := NewMemoryStore()
	store.Put(newSession(1))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			store.Touch(1)
		}
	}()
	for i := 0; i < 1000; i++ {
		store.Sweep(time.Hour)
	}
	<-done

	_, ok := store.Get(1)
	assert.True(t, ok)
}

func TestStepStrings(t *testing.T) {
	steps := map[Step]string{
		StepAwaitingForm:      "awaiting_form",
		StepAwaitingPortrait:  "awaiting_portrait",
		StepAwaitingSong:      "awaiting_song",
		StepAwaitingSongCover: "awaiting_song_cover",
		StepCompleted:         "completed",
	}
	for step, want := range steps {
		assert.Equal(t, want, step.String())
	}
}
