// Package blink is a client for Blink's unofficial camera cloud API: login
// with optional 2FA, device listing, and authenticated thumbnail fetching.
package blink

import (
	"errors"
	"sync"
)

// HeaderMode selects which authorization header shape a request carries.
// The vendor's requirement is not reliably known in advance, so the media
// fetch path discovers the working mode and keeps it here.
type HeaderMode string

const (
	// HeaderModeBearer sends Authorization: Bearer <token>
	HeaderModeBearer HeaderMode = "bearer"
	// HeaderModeTokenAuth sends the token in token-auth/TOKEN-AUTH headers
	HeaderModeTokenAuth HeaderMode = "token-auth"
)

// Flipped returns the other header mode.
func (m HeaderMode) Flipped() HeaderMode {
	if m == HeaderModeBearer {
		return HeaderModeTokenAuth
	}
	return HeaderModeBearer
}

// Credentials is the auth material for one active Blink session.
type Credentials struct {
	Token      string
	AccountID  string
	Tier       string
	HeaderMode HeaderMode
}

// ErrNoAuth is returned when credentials are read before any were set.
var ErrNoAuth = errors.New("blink auth not initialized")

// Store holds the single active credential record. It is an explicit
// dependency of whatever needs it rather than package state, and the mutex
// makes the header-mode handoff between concurrent fetches well defined.
type Store struct {
	mu    sync.Mutex
	creds *Credentials
}

// NewStore returns an empty store ("logged out").
func NewStore() *Store {
	return &Store{}
}

// Set replaces the active credential record. Callers persist to settings
// separately; the store itself writes nothing.
func (s *Store) Set(c Credentials) {
	if c.HeaderMode == "" {
		c.HeaderMode = HeaderModeBearer
	}
	s.mu.Lock()
	s.creds = &c
	s.mu.Unlock()
}

// Get returns the active record, or ErrNoAuth when logged out.
func (s *Store) Get() (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return Credentials{}, ErrNoAuth
	}
	return *s.creds, nil
}

// Has reports whether a record is present.
func (s *Store) Has() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds != nil
}

// Clear removes the active record (logout).
func (s *Store) Clear() {
	s.mu.Lock()
	s.creds = nil
	s.mu.Unlock()
}

// SetHeaderMode updates only the header mode of the active record. No-op
// when logged out.
func (s *Store) SetHeaderMode(m HeaderMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds != nil {
		s.creds.HeaderMode = m
	}
}

// Refresh produces an updated credential record and makes it active.
//
// This is a placeholder: it keeps the existing token and forces bearer
// mode. A real refresh would re-run the vendor login flow, which needs the
// account password this process never retains; re-login through the UI is
// the actual recovery path when the token has expired.
func (s *Store) Refresh() (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return Credentials{}, ErrNoAuth
	}
	s.creds.HeaderMode = HeaderModeBearer
	return *s.creds, nil
}
