package profile

import (
	"context"
	"sync"

	"github.com/tkamau/tunza/core"
)

const (
	sessionTokenKey = "session.token"
	sessionPhoneKey = "session.phone"
)

// Session is the single source of truth for the bearer token. Everything
// that authenticates a request reads the token from here; nothing else
// caches it.
//
// An empty token means unauthenticated. The token is opaque and trusted
// until a backend call rejects it.
type Session struct {
	storage Storage
	logger  core.Logger
	profile *Store

	mu       sync.RWMutex
	token    string
	phone    string
	hydrated bool
	ready    chan struct{}
}

// NewSession wires a session to its profile store and kicks off rehydration
// of both from storage on a separate goroutine. Until that completes,
// HasHydrated reports false and Token/the profile record are placeholder
// data.
func NewSession(storage Storage, logger core.Logger, profile *Store) *Session {
	s := &Session{
		storage: storage,
		logger:  logger,
		profile: profile,
		ready:   make(chan struct{}),
	}
	go s.rehydrate()
	return s
}

func (s *Session) rehydrate() {
	s.profile.hydrate()

	token, _ := s.storage.Read(sessionTokenKey)
	phone, _ := s.storage.Read(sessionPhoneKey)

	s.mu.Lock()
	s.token = string(token)
	s.phone = string(phone)
	s.hydrated = true
	s.mu.Unlock()
	close(s.ready)
}

// HasHydrated reports whether storage rehydration has completed. It
// transitions false to true exactly once.
func (s *Session) HasHydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// AwaitHydration blocks until rehydration completes or ctx is done.
func (s *Session) AwaitHydration(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	if err := s.storage.Write(sessionTokenKey, []byte(token)); err != nil {
		s.logger.Error("session: persist token", "err", err)
	}
}

// Phone returns the phone number held for OTP continuity, so a verification
// flow can resume after a restart.
func (s *Session) Phone() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phone
}

func (s *Session) SetPhone(phone string) {
	s.mu.Lock()
	s.phone = phone
	s.mu.Unlock()
	if err := s.storage.Write(sessionPhoneKey, []byte(phone)); err != nil {
		s.logger.Error("session: persist phone", "err", err)
	}
}

// Logout clears the token and resets the profile record. Navigation away is
// the caller's responsibility.
func (s *Session) Logout() {
	s.SetToken("")
	s.profile.Reset()
}
