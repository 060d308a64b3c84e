// Package providertest provides an in-memory provider.Provider for tests.
package providertest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/MrEthical07/sessiongate/provider"
	"github.com/MrEthical07/sessiongate/session"
)

// Fake is a controllable provider.Provider. The zero value is not usable; use New.
type Fake struct {
	mu         sync.Mutex
	session    *session.Session
	lookupErr  error
	gate       chan struct{}
	signInErr  error
	signOutErr error
	subErr     error
	handlers   map[int]func(*session.Session)
	nextID     int

	lookupCalls  atomic.Int64
	signInCalls  atomic.Int64
	signOutCalls atomic.Int64
	lookupEnter  chan struct{}
	lastSignIn   provider.SignInOptions
}

var _ provider.Provider = (*Fake)(nil)

// New returns a Fake with no persisted session.
func New() *Fake {
	return &Fake{
		handlers:    make(map[int]func(*session.Session)),
		lookupEnter: make(chan struct{}, 64),
	}
}

// SetSession sets what CurrentSession returns.
func (f *Fake) SetSession(s *session.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = s.Clone()
}

// FailLookup makes CurrentSession return err.
func (f *Fake) FailLookup(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookupErr = err
}

// FailSignIn makes SignIn return err.
func (f *Fake) FailSignIn(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signInErr = err
}

// FailSignOut makes SignOut return err.
func (f *Fake) FailSignOut(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOutErr = err
}

// FailSubscribe makes Subscribe return err.
func (f *Fake) FailSubscribe(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subErr = err
}

// BlockLookup makes CurrentSession wait until the returned release func is called.
func (f *Fake) BlockLookup() (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gate = gate
	f.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// LookupStarted is signalled each time CurrentSession is entered.
func (f *Fake) LookupStarted() <-chan struct{} {
	return f.lookupEnter
}

// LookupCalls returns how many times CurrentSession ran.
func (f *Fake) LookupCalls() int64 { return f.lookupCalls.Load() }

// SignInCalls returns how many times SignIn ran.
func (f *Fake) SignInCalls() int64 { return f.signInCalls.Load() }

// SignOutCalls returns how many times SignOut ran.
func (f *Fake) SignOutCalls() int64 { return f.signOutCalls.Load() }

// LastSignIn returns the options of the most recent SignIn call.
func (f *Fake) LastSignIn() provider.SignInOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSignIn
}

// Subscribers returns the number of active subscriptions.
func (f *Fake) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

// Emit delivers s to every subscriber synchronously, in subscription order.
func (f *Fake) Emit(s *session.Session) {
	f.mu.Lock()
	f.session = s.Clone()
	handlers := make([]func(*session.Session), 0, len(f.handlers))
	for i := 0; i < f.nextID; i++ {
		if h, ok := f.handlers[i]; ok {
			handlers = append(handlers, h)
		}
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(s.Clone())
	}
}

func (f *Fake) CurrentSession(ctx context.Context) (*session.Session, error) {
	f.lookupCalls.Add(1)
	select {
	case f.lookupEnter <- struct{}{}:
	default:
	}

	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.session.Clone(), nil
}

func (f *Fake) Subscribe(_ context.Context, handler func(*session.Session)) (provider.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return nil, f.subErr
	}
	id := f.nextID
	f.nextID++
	f.handlers[id] = handler
	return provider.SubscriptionFunc(func() error {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers, id)
		return nil
	}), nil
}

// SignIn returns the configured session, or nil when none is set, mimicking a
// redirect-based provider.
func (f *Fake) SignIn(_ context.Context, opts provider.SignInOptions) (*session.Session, error) {
	f.signInCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSignIn = opts
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return f.session.Clone(), nil
}

func (f *Fake) SignOut(context.Context) error {
	f.signOutCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signOutErr != nil {
		return f.signOutErr
	}
	f.session = nil
	return nil
}
