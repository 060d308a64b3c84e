package sessiongate

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/MrEthical07/sessiongate/provider"
	"github.com/MrEthical07/sessiongate/session"
)

func testSession(subject string) *session.Session {
	return &session.Session{
		ID: "sess-" + subject,
		User: session.Identity{
			Subject: subject,
			Email:   subject + "@example.com",
		},
		AccessToken: "access-" + subject,
		TokenType:   "bearer",
		IssuedAt:    time.Now().Unix(),
		ExpiresAt:   time.Now().Add(time.Hour).Unix(),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func buildTestClient(t *testing.T, p provider.Provider, mutate func(*Config)) *Client {
	t.Helper()

	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	b := New().WithConfig(cfg).WithLogger(discardLogger())
	if p != nil {
		b = b.WithProvider(p)
	}
	client, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return client
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}
