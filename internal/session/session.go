package session

import (
	"sync"

	"github.com/google/uuid"
)

// Session replaces the ambient globals the widget used to carry: the
// resolved service base URL, a generated per-session user id, and the
// busy flag that serializes outgoing chat messages.
type Session struct {
	mu      sync.Mutex
	baseURL string
	userID  string
	busy    bool
}

// New initializes a session from persisted settings. The user id is
// generated fresh per session; it only scopes conversation memory on the
// service side.
func New(settings *Settings) *Session {
	return &Session{
		baseURL: settings.BaseURL(),
		userID:  "web-" + uuid.NewString(),
	}
}

func (s *Session) UserID() string { return s.userID }

func (s *Session) BaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseURL
}

// SetBaseURL updates the session after an explicit settings save.
func (s *Session) SetBaseURL(u string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseURL = u
}

// BeginSend marks the session busy for the duration of one chat
// round-trip. It reports false while a prior message is still awaiting
// its response; callers must not send in that case.
func (s *Session) BeginSend() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

func (s *Session) EndSend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
}
