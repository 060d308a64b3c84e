package sessiongate

import "github.com/MrEthical07/sessiongate/session"

// AuthStatus is the authentication status held by State.
type AuthStatus uint8

const (
	// StatusLoading is the boot status before the first session update.
	StatusLoading AuthStatus = iota
	// StatusAuthenticated means a session is held.
	StatusAuthenticated
	// StatusAnonymous means the provider reported no session, or the lookup failed.
	StatusAnonymous
)

func (s AuthStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent view of State. Session is a private copy.
type Snapshot struct {
	Status  AuthStatus
	Session *session.Session
}

// Decision is the outcome of a guard. The zero value allows navigation.
type Decision struct {
	// Redirect is the navigation target when the decision redirects. It may be empty.
	Redirect string

	redirect bool
}

// Proceed returns a Decision that allows navigation.
func Proceed() Decision { return Decision{} }

// RedirectTo returns a Decision that overrides navigation with target.
func RedirectTo(target string) Decision { return Decision{Redirect: target, redirect: true} }

// Allowed reports whether the navigation may continue.
func (d Decision) Allowed() bool { return !d.redirect }

func (d Decision) String() string {
	if d.Allowed() {
		return "proceed"
	}
	return "redirect(" + d.Redirect + ")"
}
