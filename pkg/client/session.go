package client

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"taskmanager-backend/pkg/access"
	"taskmanager-backend/pkg/api"
)

type EventKind string

const (
	EventLogin   EventKind = "login"
	EventLogout  EventKind = "logout"
	EventExpired EventKind = "expired"
	EventRefresh EventKind = "refresh"
)

// Event is published to subscribers whenever the session changes hands.
// User is nil after logout and expiry.
type Event struct {
	Kind EventKind
	User *api.User
}

// Session is the authentication state of one client: the bearer token, the
// user it belongs to and that user's capabilities. It is safe for
// concurrent use.
type Session struct {
	mu     sync.RWMutex
	token  string
	expiry string
	user   *api.User
	caps   access.Set
	subs   map[int]chan Event
	nextID int
}

func NewSession() *Session {
	return &Session{
		caps: access.For(""),
		subs: make(map[int]chan Event),
	}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the logged in user, or nil.
func (s *Session) User() *api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) LoggedIn() bool {
	return s.Token() != ""
}

func (s *Session) Role() access.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.caps.Role()
}

// Can reports whether the current user holds c. A logged out session holds
// nothing.
func (s *Session) Can(c access.Capability) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.caps.Has(c)
}

func (s *Session) Capabilities() []access.Capability {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.caps.List()
}

// Subscribe returns a channel of session events and a function that
// unsubscribes and closes it. Slow subscribers miss events rather than block
// the session.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *Session) set(auth api.AuthResponse) {
	u := auth.User
	s.mu.Lock()
	s.token = auth.Token
	s.expiry = auth.ExpiresAt
	s.user = &u
	s.caps = access.For(u.Role)
	s.mu.Unlock()
	s.publish(Event{Kind: EventLogin, User: &u})
}

func (s *Session) refresh(u api.User) {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return
	}
	s.user = &u
	s.caps = access.For(u.Role)
	s.mu.Unlock()
	s.publish(Event{Kind: EventRefresh, User: &u})
}

func (s *Session) clear(kind EventKind) {
	s.mu.Lock()
	had := s.token != ""
	s.token = ""
	s.expiry = ""
	s.user = nil
	s.caps = access.For("")
	s.mu.Unlock()
	if had {
		s.publish(Event{Kind: kind})
	}
}

func (s *Session) publish(ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

type storedSession struct {
	Token     string   `json:"token"`
	ExpiresAt string   `json:"expires_at"`
	User      api.User `json:"user"`
}

// Save writes the token and user to path with owner-only permissions.
func (s *Session) Save(path string) error {
	s.mu.RLock()
	if s.token == "" || s.user == nil {
		s.mu.RUnlock()
		return ErrNotLoggedIn
	}
	data, err := json.MarshalIndent(storedSession{Token: s.token, ExpiresAt: s.expiry, User: *s.user}, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// LoadSession restores a session written by Save. A missing file yields an
// empty session.
func LoadSession(path string) (*Session, error) {
	s := NewSession()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}

	var st storedSession
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	if st.Token != "" {
		s.token = st.Token
		s.expiry = st.ExpiresAt
		u := st.User
		s.user = &u
		s.caps = access.For(u.Role)
	}
	return s, nil
}
