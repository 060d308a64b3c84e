package sessiongate

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/MrEthical07/sessiongate/provider"
)

// Client ties the state holder, initializer, and guards to one identity provider.
// Create it with New().Build().
type Client struct {
	config   Config
	state    *State
	init     *Initializer
	provider provider.Provider
	logger   *slog.Logger
	metrics  *Metrics
	audit    *auditDispatcher

	protected  *Guard
	publicOnly *Guard

	closeOnce sync.Once
	closeErr  error
}

// Initialize starts the boot lookup. Only the first call has any effect.
func (c *Client) Initialize(ctx context.Context) {
	c.init.Initialize(ctx)
}

// State returns the session state holder.
func (c *Client) State() *State { return c.state }

// Read returns the current snapshot without waiting for initialization.
func (c *Client) Read() Snapshot { return c.state.Read() }

// AwaitInit blocks until the boot lookup has resolved or ctx is done.
func (c *Client) AwaitInit(ctx context.Context) error { return c.state.AwaitInit(ctx) }

// IsAuthenticated reports whether a session is currently held.
func (c *Client) IsAuthenticated() bool { return c.state.IsAuthenticated() }

// ProviderConfigured reports whether an identity provider is wired.
func (c *Client) ProviderConfigured() bool { return c.provider != nil }

// Config returns a copy of the configuration the client was built with.
func (c *Client) Config() Config { return cloneConfig(c.config) }

// RequireAuth returns the guard for protected routes.
func (c *Client) RequireAuth() *Guard { return c.protected }

// RequireAnonymous returns the guard for public-only routes.
func (c *Client) RequireAnonymous() *Guard { return c.publicOnly }

func (c *Client) observeGuard(kind GuardKind, d Decision, snap Snapshot) {
	if d.Allowed() {
		c.metrics.Inc(MetricGuardProceed)
		return
	}
	c.metrics.Inc(MetricGuardRedirect)

	event := newAuditEvent(auditGuardRedirect, snap.Session, true, nil)
	event.Metadata = map[string]string{
		"guard":  kind.String(),
		"target": d.Redirect,
	}
	c.audit.Emit(context.Background(), event)
}

// SignIn asks the provider to start a sign-in. Provider errors are returned wrapped,
// so errors.Is matches the provider error kinds. A session returned immediately is
// applied to State.
func (c *Client) SignIn(ctx context.Context, opts provider.SignInOptions) error {
	if c.provider == nil {
		c.metrics.Inc(MetricSignInFailure)
		return ErrProviderNotConfigured
	}
	if opts.RedirectTo == "" {
		opts.RedirectTo = c.config.CallbackURL()
	}

	sess, err := c.provider.SignIn(ctx, opts)
	if err != nil {
		c.metrics.Inc(MetricSignInFailure)
		c.audit.Emit(ctx, newAuditEvent(auditSignInFailure, nil, false, err))
		c.logger.Error("sign in failed", "provider", opts.Provider, "error", err)
		return fmt.Errorf("sign in: %w", err)
	}

	c.metrics.Inc(MetricSignInSuccess)
	c.audit.Emit(ctx, newAuditEvent(auditSignInSuccess, sess, true, nil))
	if sess != nil {
		c.state.Update(sess)
	}
	return nil
}

// SignOut ends the provider session and moves State to anonymous on success.
func (c *Client) SignOut(ctx context.Context) error {
	if c.provider == nil {
		c.metrics.Inc(MetricSignOutFailure)
		return ErrProviderNotConfigured
	}

	before := c.state.Session()
	if err := c.provider.SignOut(ctx); err != nil {
		c.metrics.Inc(MetricSignOutFailure)
		c.audit.Emit(ctx, newAuditEvent(auditSignOutFailure, before, false, err))
		c.logger.Error("sign out failed", "error", err)
		return fmt.Errorf("sign out: %w", err)
	}

	c.metrics.Inc(MetricSignOutSuccess)
	c.audit.Emit(ctx, newAuditEvent(auditSignOutSuccess, before, true, nil))
	c.state.Update(nil)
	return nil
}

// CompleteSignIn finishes a redirect-based sign-in using the callback query.
//
// An error parameter from the provider yields ErrSignInFailed with its description.
// Otherwise the provider is asked for the current session; no session yields
// ErrNoSession.
func (c *Client) CompleteSignIn(ctx context.Context, query url.Values) error {
	err := c.completeSignIn(ctx, query)
	if err != nil {
		c.metrics.Inc(MetricCallbackFailure)
		c.audit.Emit(ctx, newAuditEvent(auditCallbackFailure, nil, false, err))
		c.logger.Warn("sign in callback failed", "error", err)
		return err
	}
	c.metrics.Inc(MetricCallbackSuccess)
	return nil
}

func (c *Client) completeSignIn(ctx context.Context, query url.Values) error {
	if code := query.Get("error"); code != "" {
		desc := query.Get("error_description")
		if desc == "" {
			desc = code
		}
		return fmt.Errorf("%w: %s", ErrSignInFailed, desc)
	}
	if c.provider == nil {
		return ErrProviderNotConfigured
	}

	sess, err := c.provider.CurrentSession(ctx)
	if err != nil {
		return fmt.Errorf("complete sign in: %w", err)
	}
	if sess == nil {
		return ErrNoSession
	}

	c.state.Update(sess)
	c.audit.Emit(ctx, newAuditEvent(auditCallbackSuccess, sess, true, nil))
	return nil
}

// MetricsSnapshot returns the current counters.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// AuditDropped returns the number of audit events dropped because the buffer was full.
func (c *Client) AuditDropped() uint64 {
	return c.audit.Dropped()
}

// Close stops provider notifications and flushes pending audit events. Later calls
// return the first result.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.init.Close()
		c.audit.Close()
	})
	return c.closeErr
}
