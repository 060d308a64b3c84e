package sessiongate

import "context"

// GuardKind selects the truth table a Guard applies.
type GuardKind uint8

const (
	// GuardProtected admits authenticated sessions and redirects everyone else.
	GuardProtected GuardKind = iota
	// GuardPublicOnly admits anonymous visitors and redirects authenticated ones.
	GuardPublicOnly
)

func (k GuardKind) String() string {
	switch k {
	case GuardProtected:
		return "protected"
	case GuardPublicOnly:
		return "public_only"
	default:
		return "unknown"
	}
}

// Guard is a route-entry decision function. Guards only read State.
type Guard struct {
	kind    GuardKind
	state   *State
	target  string
	observe func(GuardKind, Decision, Snapshot)
}

// NewProtectedGuard returns a guard that redirects anonymous visitors to loginPath.
func NewProtectedGuard(state *State, loginPath string) *Guard {
	return &Guard{kind: GuardProtected, state: state, target: loginPath}
}

// NewPublicOnlyGuard returns a guard that redirects authenticated visitors to homePath.
func NewPublicOnlyGuard(state *State, homePath string) *Guard {
	return &Guard{kind: GuardPublicOnly, state: state, target: homePath}
}

// Kind returns the guard's truth table.
func (g *Guard) Kind() GuardKind { return g.kind }

// Target returns the redirect target.
func (g *Guard) Target() string { return g.target }

// Snapshot reads the state the guard decides on.
func (g *Guard) Snapshot() Snapshot { return g.state.Read() }

// CanEnter waits for session initialization, then decides. The only error is ctx's,
// returned when the caller abandons the navigation while the boot lookup is pending.
func (g *Guard) CanEnter(ctx context.Context) (Decision, error) {
	d, _, err := g.Enter(ctx)
	return d, err
}

// Enter is CanEnter that also returns the snapshot the decision was made from.
func (g *Guard) Enter(ctx context.Context) (Decision, Snapshot, error) {
	if err := g.state.AwaitInit(ctx); err != nil {
		return Decision{}, Snapshot{}, err
	}

	snap := g.state.Read()
	authenticated := snap.Status == StatusAuthenticated

	var d Decision
	switch g.kind {
	case GuardProtected:
		if !authenticated {
			d = RedirectTo(g.target)
		}
	case GuardPublicOnly:
		if authenticated {
			d = RedirectTo(g.target)
		}
	}

	if g.observe != nil {
		g.observe(g.kind, d, snap)
	}
	return d, snap, nil
}
