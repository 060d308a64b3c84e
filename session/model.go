package session

import (
	"maps"
	"time"
)

// Identity is the subject a provider authenticated.
type Identity struct {
	Subject  string
	Email    string
	Metadata map[string]string
}

// Session is an opaque token bundle issued by the identity provider.
//
// Sessions are replaced wholesale on every update; nothing in this module mutates a
// Session in place after it has been published.
type Session struct {
	ID           string
	User         Identity
	AccessToken  string
	RefreshToken string
	TokenType    string

	IssuedAt  int64
	ExpiresAt int64
}

// Expired reports whether the session lifetime has ended at now. A zero ExpiresAt
// never expires.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt == 0 {
		return false
	}
	return now.Unix() >= s.ExpiresAt
}

// ExpiresIn returns the remaining lifetime at now, or zero when expired.
func (s *Session) ExpiresIn(now time.Time) time.Duration {
	if s == nil || s.ExpiresAt == 0 {
		return 0
	}
	d := time.Unix(s.ExpiresAt, 0).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Clone returns a deep copy. Clone of nil is nil.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.User.Metadata = maps.Clone(s.User.Metadata)
	return &out
}
