package sessiongate

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/sessiongate/internal/oneshot"
	"github.com/MrEthical07/sessiongate/provider"
	"github.com/MrEthical07/sessiongate/session"
)

// Initializer performs the one-time boot lookup and forwards provider notifications
// into State for the rest of the process lifetime.
type Initializer struct {
	state    *State
	provider provider.Provider
	logger   *slog.Logger
	metrics  *Metrics
	audit    *auditDispatcher

	started    atomic.Bool
	subscribed *oneshot.Signal
	wg         sync.WaitGroup

	mu     sync.Mutex
	sub    provider.Subscription
	closed bool
}

// NewInitializer wires state to p. A nil p means the provider is not configured: the
// boot lookup resolves to anonymous and no subscription is made.
func NewInitializer(state *State, p provider.Provider, logger *slog.Logger) *Initializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Initializer{
		state:      state,
		provider:   p,
		logger:     logger,
		subscribed: oneshot.New(),
	}
}

// Initialize runs the boot lookup once. Later calls return immediately, even while the
// first one is still waiting on the provider.
//
// Lookup failures are logged and downgraded to anonymous so that the initialization
// signal always resolves. When State was updated while the lookup was pending (an early
// sign-in), the newer state is kept and the lookup result is discarded. The change
// subscription is established in the background after the initial update; Initialize
// does not wait for it.
func (i *Initializer) Initialize(ctx context.Context) {
	if !i.started.CompareAndSwap(false, true) {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if i.provider == nil {
		i.logger.Warn("identity provider not configured; starting anonymous")
		i.state.Update(nil)
		i.audit.Emit(ctx, newAuditEvent(auditSessionInitialized, nil, true, nil))
		i.subscribed.Fire()
		return
	}

	gen := i.state.currentGeneration()
	start := time.Now()
	sess, err := i.provider.CurrentSession(ctx)
	i.metrics.Observe(MetricInitLatency, time.Since(start))

	if err != nil {
		i.metrics.Inc(MetricLookupFailure)
		i.logger.Error("initial session lookup failed; starting anonymous", "error", err)
		i.audit.Emit(ctx, newAuditEvent(auditLookupFailed, nil, false, err))
		sess = nil
	} else {
		i.metrics.Inc(MetricLookupSuccess)
	}

	if !i.state.updateIfUnchanged(gen, sess) {
		i.logger.Info("session changed during initial lookup; keeping newer state")
		sess = i.state.Session()
	}
	i.audit.Emit(ctx, newAuditEvent(auditSessionInitialized, sess, err == nil, nil))

	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		i.subscribed.Fire()
		return
	}
	i.wg.Add(1)
	i.mu.Unlock()

	go i.subscribe(context.WithoutCancel(ctx))
}

func (i *Initializer) subscribe(ctx context.Context) {
	defer i.wg.Done()
	defer i.subscribed.Fire()

	i.mu.Lock()
	closed := i.closed
	i.mu.Unlock()
	if closed {
		return
	}

	sub, err := i.provider.Subscribe(ctx, i.forward)
	if err != nil {
		i.logger.Error("session change subscription failed", "error", err)
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		if err := sub.Unsubscribe(); err != nil {
			i.logger.Warn("session change unsubscribe failed", "error", err)
		}
		return
	}
	i.sub = sub
}

func (i *Initializer) forward(sess *session.Session) {
	i.metrics.Inc(MetricNotification)
	i.state.Update(sess)
	i.audit.Emit(context.Background(), newAuditEvent(auditSessionChanged, sess, true, nil))
}

// Started reports whether Initialize has been called.
func (i *Initializer) Started() bool {
	return i.started.Load()
}

// Subscribed is closed once the background subscription attempt has finished,
// successfully or not.
func (i *Initializer) Subscribed() <-chan struct{} {
	return i.subscribed.Done()
}

// Close stops forwarding provider notifications. It is safe to call more than once.
func (i *Initializer) Close() error {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return nil
	}
	i.closed = true
	i.mu.Unlock()

	i.wg.Wait()

	i.mu.Lock()
	sub := i.sub
	i.sub = nil
	i.mu.Unlock()

	if sub == nil {
		return nil
	}
	return sub.Unsubscribe()
}
