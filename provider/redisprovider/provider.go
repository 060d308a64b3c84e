package redisprovider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/sessiongate/internal/token"
	"github.com/MrEthical07/sessiongate/jwt"
	"github.com/MrEthical07/sessiongate/provider"
	"github.com/MrEthical07/sessiongate/session"
	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const tokenTypeBearer = "bearer"

// Options configures a Provider.
type Options struct {
	Prefix     string
	StorageKey string
	Logger     *slog.Logger
	Now        func() time.Time
}

// Provider is a Redis-backed identity provider.
type Provider struct {
	redis      redis.UniversalClient
	tokens     *jwt.Manager
	prefix     string
	storageKey string
	logger     *slog.Logger
	now        func() time.Time
}

var _ provider.Provider = (*Provider)(nil)

// New returns a Provider persisting sessions through client and verifying them with
// tokens.
func New(client redis.UniversalClient, tokens *jwt.Manager, opts Options) (*Provider, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	if tokens == nil {
		return nil, errors.New("token manager required")
	}
	if strings.TrimSpace(opts.StorageKey) == "" {
		return nil, errors.New("storage key required")
	}
	if opts.Prefix == "" {
		opts.Prefix = "sg"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Provider{
		redis:      client,
		tokens:     tokens,
		prefix:     opts.Prefix,
		storageKey: opts.StorageKey,
		logger:     opts.Logger.With("component", "redisprovider"),
		now:        opts.Now,
	}, nil
}

func (p *Provider) sessionKey() string {
	return p.prefix + ":session:" + p.storageKey
}

func (p *Provider) channel() string {
	return p.prefix + ":events:" + p.storageKey
}

// CurrentSession loads the persisted session.
//
//	Performance: 1 Redis GET.
func (p *Provider) CurrentSession(ctx context.Context) (*session.Session, error) {
	data, err := p.redis.Get(ctx, p.sessionKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}

	return p.verify(data)
}

// verify decodes data and checks its identity token. An expired session verifies to
// nil without error.
func (p *Provider) verify(data []byte) (*session.Session, error) {
	sess, err := session.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrRejected, err)
	}

	claims, err := p.tokens.Parse(sess.AccessToken)
	if err != nil {
		if errors.Is(err, gjwt.ErrTokenExpired) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: identity token: %v", provider.ErrRejected, err)
	}
	if claims.Subject != sess.User.Subject || claims.SessionID != sess.ID {
		return nil, fmt.Errorf("%w: identity token does not match session", provider.ErrRejected)
	}

	if sess.Expired(p.now()) {
		return nil, nil
	}
	return sess, nil
}

// SignIn issues a session for opts.Subject, persists it, and publishes it.
//
//	Performance: 1 MULTI/EXEC round trip (SET + PUBLISH).
func (p *Provider) SignIn(ctx context.Context, opts provider.SignInOptions) (*session.Session, error) {
	subject := strings.TrimSpace(opts.Subject)
	if subject == "" {
		return nil, fmt.Errorf("%w: subject required", provider.ErrRejected)
	}
	if !p.tokens.CanIssue() {
		return nil, fmt.Errorf("%w: provider cannot issue sessions", provider.ErrRejected)
	}

	refresh, err := token.NewRefreshToken()
	if err != nil {
		return nil, err
	}

	claims := jwt.IdentityClaims{
		Email:     opts.Email,
		SessionID: uuid.NewString(),
		Provider:  opts.Provider,
	}
	claims.Subject = subject
	access, expiresAt, err := p.tokens.Issue(claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrRejected, err)
	}

	sess := &session.Session{
		ID: claims.SessionID,
		User: session.Identity{
			Subject: subject,
			Email:   opts.Email,
		},
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenTypeBearer,
		IssuedAt:     p.now().Unix(),
		ExpiresAt:    expiresAt.Unix(),
	}
	if opts.Provider != "" {
		sess.User.Metadata = map[string]string{"provider": opts.Provider}
	}

	data, err := session.Encode(sess)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrRejected, err)
	}

	ttl := sess.ExpiresIn(p.now())
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: issued session already expired", provider.ErrRejected)
	}

	_, err = p.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, p.sessionKey(), data, ttl)
		pipe.Publish(ctx, p.channel(), data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}

	p.logger.Debug("session issued",
		"sid", sess.ID,
		"subject", subject,
		"refresh_fp", token.Fingerprint(refresh),
	)
	return sess, nil
}

// SignOut deletes the persisted session and publishes the sign-out.
func (p *Provider) SignOut(ctx context.Context) error {
	_, err := p.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, p.sessionKey())
		pipe.Publish(ctx, p.channel(), "")
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}
	return nil
}

// Subscribe delivers session changes to handler from a single goroutine, in publish
// order. Payloads are verified like CurrentSession: rejected ones are logged and
// skipped, expired ones are delivered as nil.
func (p *Provider) Subscribe(ctx context.Context, handler func(*session.Session)) (provider.Subscription, error) {
	if handler == nil {
		return nil, errors.New("nil handler")
	}

	pubsub := p.redis.Subscribe(ctx, p.channel())
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("%w: subscribe: %v", provider.ErrUnavailable, err)
	}

	sub := &subscription{
		pubsub: pubsub,
		done:   make(chan struct{}),
	}
	msgs := pubsub.Channel()

	go func() {
		defer close(sub.done)
		for msg := range msgs {
			if msg.Payload == "" {
				handler(nil)
				continue
			}
			sess, err := p.verify([]byte(msg.Payload))
			if err != nil {
				p.logger.Warn("dropping unverified session notification", "error", err)
				continue
			}
			handler(sess)
		}
	}()

	return sub, nil
}

type subscription struct {
	pubsub    *redis.PubSub
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Unsubscribe closes the Pub/Sub connection and waits for the delivery goroutine to
// exit. It is safe to call more than once.
func (s *subscription) Unsubscribe() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.pubsub.Close()
		<-s.done
	})
	return s.closeErr
}
