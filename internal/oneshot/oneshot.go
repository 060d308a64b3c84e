package oneshot

import (
	"context"
	"sync"
)

// Signal is a single-fire completion marker. The zero value is not usable; use New.
type Signal struct {
	once sync.Once
	done chan struct{}
}

// New returns an unfired Signal.
func New() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Fire resolves the signal. Only the first call has an effect and reports true.
func (s *Signal) Fire() bool {
	fired := false
	s.once.Do(func() {
		close(s.done)
		fired = true
	})
	return fired
}

// Done returns a channel that is closed once the signal fires.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

// Fired reports whether Fire has been called.
func (s *Signal) Fired() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the signal fires or ctx is done. A fired signal returns nil
// without consulting ctx.
func (s *Signal) Wait(ctx context.Context) error {
	if s.Fired() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
