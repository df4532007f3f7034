package session

import (
	"sync"
	"time"

	"eclis-registry-bot/internal/form"
)

// Step is the wizard's position. Steps are strictly linear; cancellation is
// a global interrupt handled before any step logic, not a step of its own.
type Step int

const (
	StepAwaitingForm Step = iota
	StepAwaitingPortrait
	StepAwaitingSong
	StepAwaitingSongCover
	StepCompleted
)

func (s Step) String() string {
	switch s {
	case StepAwaitingForm:
		return "awaiting_form"
	case StepAwaitingPortrait:
		return "awaiting_portrait"
	case StepAwaitingSong:
		return "awaiting_song"
	case StepAwaitingSongCover:
		return "awaiting_song_cover"
	case StepCompleted:
		return "completed"
	}
	return "unknown"
}

type MediaKind int

const (
	MediaSticker MediaKind = iota
	MediaPhoto
	MediaAudio
)

// MediaRef is an opaque transport file handle plus what kind of file it is.
type MediaRef struct {
	FileID string
	Kind   MediaKind
}

// Session is one user's in-progress wizard run. It exists exactly while a
// run is in progress and is deleted on completion, cancellation, error or
// idle sweep.
type Session struct {
	UserID      int64
	ChatID      int64
	Username    string
	DisplayName string

	Step    Step
	Fields  form.Fields
	RawForm string

	Portrait  *MediaRef
	Song      *MediaRef
	SongCover *MediaRef

	CreatedAt    time.Time
	LastActivity time.Time
}

// Store holds at most one Session per user. LastActivity is owned by the
// store: it is written by Touch and read by Sweep under the same lock, so
// handler goroutines and the sweep job never race on it.
type Store interface {
	Get(userID int64) (*Session, bool)
	// Put replaces any existing session for the same user.
	Put(s *Session)
	// Touch refreshes the session's idle clock.
	Touch(userID int64)
	Delete(userID int64)
	// Sweep removes sessions idle for longer than maxIdle and reports how
	// many were evicted.
	Sweep(maxIdle time.Duration) int
}

type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]*Session)}
}

func (m *MemoryStore) Get(userID int64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

func (m *MemoryStore) Put(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.UserID] = s
}

func (m *MemoryStore) Touch(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		s.LastActivity = time.Now()
	}
}

func (m *MemoryStore) Delete(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

func (m *MemoryStore) Sweep(maxIdle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-maxIdle)
	evicted := 0
	for id, s := range m.sessions {
		if s.LastActivity.Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Len is used by the status endpoint and tests.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
