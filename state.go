package sessiongate

import (
	"context"
	"sync"

	"github.com/MrEthical07/sessiongate/internal/oneshot"
	"github.com/MrEthical07/sessiongate/session"
)

// State is the process-wide session state holder.
//
// It starts as StatusLoading with no session. The first Update moves it to
// StatusAuthenticated or StatusAnonymous and resolves the initialization signal; later
// updates toggle between those two and never touch the signal again.
type State struct {
	// updateMu serializes Update so watchers observe updates in apply order.
	updateMu sync.Mutex

	mu       sync.RWMutex
	status   AuthStatus
	session  *session.Session
	watchers map[uint64]func(Snapshot)
	nextID   uint64
	// generation counts applied updates.
	generation uint64

	initialized *oneshot.Signal
}

// NewState returns a holder in the loading state.
func NewState() *State {
	return &State{
		status:      StatusLoading,
		watchers:    make(map[uint64]func(Snapshot)),
		initialized: oneshot.New(),
	}
}

// Read returns the current snapshot without blocking on initialization.
func (s *State) Read() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Status: s.status, Session: s.session.Clone()}
}

// Status returns the current status.
func (s *State) Status() AuthStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Session returns a copy of the current session, or nil.
func (s *State) Session() *session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Clone()
}

// User returns the identity of the current session and whether one is held.
func (s *State) User() (session.Identity, bool) {
	sess := s.Session()
	if sess == nil {
		return session.Identity{}, false
	}
	return sess.User, true
}

// IsAuthenticated reports whether the status is StatusAuthenticated.
func (s *State) IsAuthenticated() bool {
	return s.Status() == StatusAuthenticated
}

// Update replaces the held session. A nil session means anonymous.
//
// The new state is visible to every reader before Update returns and before any
// waiter on AwaitInit resumes. Watchers run synchronously after the state is applied
// and must not call Update.
func (s *State) Update(sess *session.Session) {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()
	s.apply(sess)
}

// updateIfUnchanged applies sess only when no update happened since gen was read. It
// reports whether sess was applied.
func (s *State) updateIfUnchanged(gen uint64, sess *session.Session) bool {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	if s.currentGeneration() != gen {
		return false
	}
	s.apply(sess)
	return true
}

func (s *State) currentGeneration() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// apply must be called with updateMu held.
func (s *State) apply(sess *session.Session) {
	stored := sess.Clone()
	status := StatusAnonymous
	if stored != nil {
		status = StatusAuthenticated
	}

	s.mu.Lock()
	s.session = stored
	s.status = status
	s.generation++
	watchers := make([]func(Snapshot), 0, len(s.watchers))
	for id := uint64(0); id < s.nextID; id++ {
		if w, ok := s.watchers[id]; ok {
			watchers = append(watchers, w)
		}
	}
	s.mu.Unlock()

	s.initialized.Fire()

	for _, w := range watchers {
		w(Snapshot{Status: status, Session: stored.Clone()})
	}
}

// AwaitInit blocks until the first Update has been applied. It returns nil immediately
// when that already happened. ctx only lets an abandoned caller stop waiting.
func (s *State) AwaitInit(ctx context.Context) error {
	return s.initialized.Wait(ctx)
}

// Initialized reports whether the first Update has been applied.
func (s *State) Initialized() bool {
	return s.initialized.Fired()
}

// Watch registers fn to be called after every Update. The returned func removes it.
func (s *State) Watch(fn func(Snapshot)) (cancel func()) {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, id)
			s.mu.Unlock()
		})
	}
}
