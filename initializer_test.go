package sessiongate

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/MrEthical07/sessiongate/provider"
	"github.com/MrEthical07/sessiongate/provider/providertest"
	"go.uber.org/goleak"
)

func newTestInitializer(p provider.Provider) (*State, *Initializer) {
	state := NewState()
	return state, NewInitializer(state, p, discardLogger())
}

func TestInitializerAuthenticatedBoot(t *testing.T) {
	defer goleak.VerifyNone(t)

	fake := providertest.New()
	fake.SetSession(testSession("u1"))
	state, boot := newTestInitializer(fake)
	defer boot.Close()

	boot.Initialize(context.Background())

	if got := state.Status(); got != StatusAuthenticated {
		t.Fatalf("expected authenticated, got %v", got)
	}
	if !state.Initialized() {
		t.Fatal("expected signal resolved after Initialize returns")
	}

	waitFor(t, boot.Subscribed(), "subscription")
	if fake.Subscribers() != 1 {
		t.Fatalf("expected one subscription, got %d", fake.Subscribers())
	}

	if err := boot.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if fake.Subscribers() != 0 {
		t.Fatal("expected subscription removed on Close")
	}
}

func TestInitializerAnonymousBoot(t *testing.T) {
	defer goleak.VerifyNone(t)

	fake := providertest.New()
	state, boot := newTestInitializer(fake)
	defer boot.Close()

	boot.Initialize(context.Background())

	if got := state.Status(); got != StatusAnonymous {
		t.Fatalf("expected anonymous, got %v", got)
	}
	if err := state.AwaitInit(context.Background()); err != nil {
		t.Fatalf("AwaitInit: %v", err)
	}
}

func TestInitializerLookupFailureResolvesAnonymous(t *testing.T) {
	defer goleak.VerifyNone(t)

	fake := providertest.New()
	fake.SetSession(testSession("u1"))
	fake.FailLookup(fmt.Errorf("%w: connection refused", provider.ErrUnavailable))
	state, boot := newTestInitializer(fake)
	defer boot.Close()

	boot.Initialize(context.Background())

	if got := state.Status(); got != StatusAnonymous {
		t.Fatalf("expected anonymous after failed lookup, got %v", got)
	}
	if !state.Initialized() {
		t.Fatal("failed lookup must still resolve the signal")
	}

	waitFor(t, boot.Subscribed(), "subscription")
	if fake.Subscribers() != 1 {
		t.Fatal("expected subscription after failed lookup so later sign-ins are observed")
	}
}

func TestInitializerNilProviderStartsAnonymous(t *testing.T) {
	defer goleak.VerifyNone(t)

	state, boot := newTestInitializer(nil)
	defer boot.Close()

	boot.Initialize(context.Background())

	if got := state.Status(); got != StatusAnonymous {
		t.Fatalf("expected anonymous, got %v", got)
	}
	waitFor(t, boot.Subscribed(), "subscription attempt")
}

func TestInitializerRunsLookupOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	fake := providertest.New()
	release := fake.BlockLookup()
	state, boot := newTestInitializer(fake)
	defer boot.Close()
	defer release()

	first := make(chan struct{})
	go func() {
		boot.Initialize(context.Background())
		close(first)
	}()
	waitFor(t, fake.LookupStarted(), "first lookup")

	again := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			boot.Initialize(context.Background())
		}
		close(again)
	}()
	waitFor(t, again, "repeat Initialize calls to return")

	if got := state.Status(); got != StatusLoading {
		t.Fatalf("expected loading while lookup pending, got %v", got)
	}
	if !boot.Started() {
		t.Fatal("expected Started after first call")
	}

	release()
	waitFor(t, first, "first Initialize")

	if got := fake.LookupCalls(); got != 1 {
		t.Fatalf("expected exactly one lookup, got %d", got)
	}
}

func TestInitializerSubscribesAfterInitialUpdate(t *testing.T) {
	defer goleak.VerifyNone(t)

	fake := providertest.New()
	fake.SetSession(testSession("u1"))
	release := fake.BlockLookup()
	_, boot := newTestInitializer(fake)
	defer boot.Close()
	defer release()

	done := make(chan struct{})
	go func() {
		boot.Initialize(context.Background())
		close(done)
	}()
	waitFor(t, fake.LookupStarted(), "lookup")

	if fake.Subscribers() != 0 {
		t.Fatal("subscription must not exist before the initial update")
	}

	release()
	waitFor(t, done, "Initialize")
	waitFor(t, boot.Subscribed(), "subscription")
	if fake.Subscribers() != 1 {
		t.Fatalf("expected one subscription, got %d", fake.Subscribers())
	}
}

func TestInitializerForwardsNotifications(t *testing.T) {
	defer goleak.VerifyNone(t)

	fake := providertest.New()
	fake.SetSession(testSession("u1"))
	state, boot := newTestInitializer(fake)
	defer boot.Close()

	boot.Initialize(context.Background())
	waitFor(t, boot.Subscribed(), "subscription")

	fake.Emit(nil)
	if got := state.Status(); got != StatusAnonymous {
		t.Fatalf("expected anonymous after sign-out notification, got %v", got)
	}

	fake.Emit(testSession("u2"))
	user, ok := state.User()
	if !ok || user.Subject != "u2" {
		t.Fatalf("expected u2 after sign-in notification, got %+v ok=%v", user, ok)
	}

	if got := fake.LookupCalls(); got != 1 {
		t.Fatalf("notifications must not trigger lookups, got %d", got)
	}
}

func TestInitializerSubscribeFailureKeepsState(t *testing.T) {
	defer goleak.VerifyNone(t)

	fake := providertest.New()
	fake.SetSession(testSession("u1"))
	fake.FailSubscribe(errors.New("pubsub down"))
	state, boot := newTestInitializer(fake)
	defer boot.Close()

	boot.Initialize(context.Background())
	waitFor(t, boot.Subscribed(), "subscription attempt")

	if got := state.Status(); got != StatusAuthenticated {
		t.Fatalf("expected authenticated, got %v", got)
	}
}

func TestInitializerCloseIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	fake := providertest.New()
	_, boot := newTestInitializer(fake)
	boot.Initialize(context.Background())

	if err := boot.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := boot.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	select {
	case <-boot.Subscribed():
	case <-time.After(time.Second):
		t.Fatal("expected subscription attempt finished after Close")
	}
}
