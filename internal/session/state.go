package session

import (
	"slices"
	"strings"
	"sync"
)

// Credential names a backend credential that may be overridden at runtime.
type Credential string

const (
	CredentialPoe  Credential = "POE_COOKIE"
	CredentialBing Credential = "BING_AUTH_COOKIE"
)

var credentials = []Credential{CredentialPoe, CredentialBing}

func Credentials() []Credential {
	return append([]Credential(nil), credentials...)
}

// ParseCredential accepts the credential name in any letter case.
func ParseCredential(name string) (Credential, bool) {
	for _, c := range credentials {
		if strings.EqualFold(name, string(c)) {
			return c, true
		}
	}
	return "", false
}

// State is the process-wide mutable state shared by every chat. It lives
// for the process lifetime and is never persisted.
type State struct {
	mu        sync.RWMutex
	defaults  map[Credential]string
	overrides map[Credential]string
	listeners []func(Credential)
}

func NewState(poeCookie, bingCookie string) *State {
	return &State{
		defaults: map[Credential]string{
			CredentialPoe:  poeCookie,
			CredentialBing: bingCookie,
		},
		overrides: make(map[Credential]string),
	}
}

// Credential returns the override when present, the configured value otherwise.
func (s *State) Credential(c Credential) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.overrides[c]; ok {
		return v
	}
	return s.defaults[c]
}

func (s *State) HasOverride(c Credential) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.overrides[c]
	return ok
}

func (s *State) SetCredential(c Credential, value string) {
	s.mu.Lock()
	s.overrides[c] = value
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(c)
	}
}

// ClearOverrides drops every override and notifies listeners for each one removed.
func (s *State) ClearOverrides() {
	s.mu.Lock()
	cleared := make([]Credential, 0, len(s.overrides))
	for c := range s.overrides {
		cleared = append(cleared, c)
	}
	s.overrides = make(map[Credential]string)
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, c := range cleared {
		for _, fn := range listeners {
			fn(c)
		}
	}
}

// OnChange registers fn to run after a credential changes.
func (s *State) OnChange(fn func(Credential)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}
