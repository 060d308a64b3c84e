package sessiongate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/sessiongate/provider/providertest"
	"go.uber.org/goleak"
)

func TestGuardTruthTable(t *testing.T) {
	tests := []struct {
		name     string
		authed   bool
		kind     GuardKind
		redirect string
	}{
		{name: "protected authenticated", authed: true, kind: GuardProtected},
		{name: "protected anonymous", authed: false, kind: GuardProtected, redirect: "/login"},
		{name: "public-only authenticated", authed: true, kind: GuardPublicOnly, redirect: "/"},
		{name: "public-only anonymous", authed: false, kind: GuardPublicOnly},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			state := NewState()
			if tc.authed {
				state.Update(testSession("u1"))
			} else {
				state.Update(nil)
			}

			var g *Guard
			if tc.kind == GuardProtected {
				g = NewProtectedGuard(state, "/login")
			} else {
				g = NewPublicOnlyGuard(state, "/")
			}

			d, err := g.CanEnter(context.Background())
			if err != nil {
				t.Fatalf("CanEnter: %v", err)
			}
			if d.Redirect != tc.redirect {
				t.Fatalf("expected redirect %q, got %q", tc.redirect, d.Redirect)
			}
			if d.Allowed() != (tc.redirect == "") {
				t.Fatalf("Allowed mismatch for %v", d)
			}
		})
	}
}

func TestGuardAbandonedWhileLoading(t *testing.T) {
	state := NewState()
	g := NewProtectedGuard(state, "/login")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.CanEnter(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestGuardEmptyTargetStillRedirects(t *testing.T) {
	state := NewState()
	state.Update(nil)

	d, err := NewProtectedGuard(state, "").CanEnter(context.Background())
	if err != nil {
		t.Fatalf("CanEnter: %v", err)
	}
	if d.Allowed() {
		t.Fatal("anonymous visitor must not enter a protected route with an empty login path")
	}

	state.Update(testSession("u1"))
	d, err = NewPublicOnlyGuard(state, "").CanEnter(context.Background())
	if err != nil {
		t.Fatalf("CanEnter: %v", err)
	}
	if d.Allowed() {
		t.Fatal("authenticated visitor must not enter a public-only route with an empty home path")
	}
}

func TestGuardEnterReturnsDecidedSnapshot(t *testing.T) {
	state := NewState()
	state.Update(testSession("u1"))

	g := NewProtectedGuard(state, "/login")
	// sign-out lands right after the decision
	g.observe = func(GuardKind, Decision, Snapshot) { state.Update(nil) }

	d, snap, err := g.Enter(context.Background())
	if err != nil {
		t.Fatalf("Enter: %v", err)
	}
	if !d.Allowed() {
		t.Fatalf("expected proceed, got %v", d)
	}
	if snap.Status != StatusAuthenticated || snap.Session == nil || snap.Session.User.Subject != "u1" {
		t.Fatalf("snapshot must be the one the decision was made from, got %+v", snap)
	}
	if state.IsAuthenticated() {
		t.Fatal("expected the later sign-out to be applied")
	}
}

// Reload on a protected page with a persisted session.
func TestScenarioReloadAuthenticated(t *testing.T) {
	defer goleak.VerifyNone(t)

	fake := providertest.New()
	fake.SetSession(testSession("u1"))
	release := fake.BlockLookup()
	state, boot := newTestInitializer(fake)
	defer boot.Close()
	defer release()

	go boot.Initialize(context.Background())
	waitFor(t, fake.LookupStarted(), "lookup")

	result := make(chan Decision, 1)
	go func() {
		d, err := NewProtectedGuard(state, "/login").CanEnter(context.Background())
		if err != nil {
			t.Errorf("CanEnter: %v", err)
		}
		result <- d
	}()

	select {
	case <-result:
		t.Fatal("guard decided before initialization")
	case <-time.After(30 * time.Millisecond):
	}

	release()

	select {
	case d := <-result:
		if !d.Allowed() {
			t.Fatalf("expected proceed, got %v", d)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("guard never resumed")
	}
	waitFor(t, boot.Subscribed(), "subscription")
}

// Anonymous visitor lands on a protected page.
func TestScenarioAnonymousRedirectsToLogin(t *testing.T) {
	defer goleak.VerifyNone(t)

	fake := providertest.New()
	state, boot := newTestInitializer(fake)
	defer boot.Close()

	boot.Initialize(context.Background())

	d, err := NewProtectedGuard(state, "/login").CanEnter(context.Background())
	if err != nil {
		t.Fatalf("CanEnter: %v", err)
	}
	if d.Redirect != "/login" {
		t.Fatalf("expected redirect to /login, got %v", d)
	}
}

// Two guards wait on the same pending lookup and resume together.
func TestScenarioConcurrentGuardsShareLookup(t *testing.T) {
	defer goleak.VerifyNone(t)

	fake := providertest.New()
	fake.SetSession(testSession("u1"))
	release := fake.BlockLookup()
	state, boot := newTestInitializer(fake)
	defer boot.Close()
	defer release()

	go boot.Initialize(context.Background())
	waitFor(t, fake.LookupStarted(), "lookup")

	protected := make(chan Decision, 1)
	publicOnly := make(chan Decision, 1)
	go func() {
		d, _ := NewProtectedGuard(state, "/login").CanEnter(context.Background())
		protected <- d
	}()
	go func() {
		d, _ := NewPublicOnlyGuard(state, "/").CanEnter(context.Background())
		publicOnly <- d
	}()

	time.Sleep(30 * time.Millisecond)
	if len(protected) != 0 || len(publicOnly) != 0 {
		t.Fatal("guards decided before initialization")
	}

	release()

	select {
	case d := <-protected:
		if !d.Allowed() {
			t.Fatalf("protected guard: expected proceed, got %v", d)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("protected guard never resumed")
	}
	select {
	case d := <-publicOnly:
		if d.Redirect != "/" {
			t.Fatalf("public-only guard: expected redirect to /, got %v", d)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("public-only guard never resumed")
	}

	if got := fake.LookupCalls(); got != 1 {
		t.Fatalf("expected one lookup, got %d", got)
	}
	waitFor(t, boot.Subscribed(), "subscription")
}

// Sign-out in another tab arrives as a notification.
func TestScenarioRemoteSignOut(t *testing.T) {
	defer goleak.VerifyNone(t)

	fake := providertest.New()
	fake.SetSession(testSession("u1"))
	state, boot := newTestInitializer(fake)
	defer boot.Close()

	boot.Initialize(context.Background())
	waitFor(t, boot.Subscribed(), "subscription")

	fake.Emit(nil)

	if got := state.Status(); got != StatusAnonymous {
		t.Fatalf("expected anonymous, got %v", got)
	}
	d, err := NewProtectedGuard(state, "/login").CanEnter(context.Background())
	if err != nil {
		t.Fatalf("CanEnter: %v", err)
	}
	if d.Redirect != "/login" {
		t.Fatalf("expected redirect to /login, got %v", d)
	}
	if got := fake.LookupCalls(); got != 1 {
		t.Fatalf("expected no new lookup, got %d", got)
	}
}

func TestGuardKindString(t *testing.T) {
	if GuardProtected.String() != "protected" || GuardPublicOnly.String() != "public_only" {
		t.Fatal("unexpected guard kind names")
	}
}
