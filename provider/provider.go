package provider

import (
	"context"
	"errors"

	"github.com/MrEthical07/sessiongate/session"
)

var (
	// ErrUnavailable marks network or transport failures.
	ErrUnavailable = errors.New("identity provider unavailable")
	// ErrRejected marks error responses and malformed sessions.
	ErrRejected = errors.New("identity provider rejected request")
	// ErrNotConfigured is returned when no provider is wired.
	ErrNotConfigured = errors.New("identity provider not configured")
)

// Provider is the identity provider collaborator.
//
// CurrentSession returns (nil, nil) when no session is persisted. Subscribe delivers
// every later session change, nil meaning signed out, in the order the provider
// observed them.
type Provider interface {
	CurrentSession(ctx context.Context) (*session.Session, error)
	Subscribe(ctx context.Context, handler func(*session.Session)) (Subscription, error)
	SignIn(ctx context.Context, opts SignInOptions) (*session.Session, error)
	SignOut(ctx context.Context) error
}

// Subscription is the handle returned by Provider.Subscribe.
type Subscription interface {
	Unsubscribe() error
}

// SignInOptions parameterizes a sign-in request. Redirect-based providers use Provider
// and RedirectTo; providers that issue sessions directly use Subject and Email.
type SignInOptions struct {
	Provider   string
	RedirectTo string
	Scopes     []string
	Subject    string
	Email      string
}

// SubscriptionFunc adapts a function to the Subscription interface.
type SubscriptionFunc func() error

// Unsubscribe calls f.
func (f SubscriptionFunc) Unsubscribe() error {
	if f == nil {
		return nil
	}
	return f()
}
