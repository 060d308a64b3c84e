// Package main runs a small web app whose pages are gated by sessiongate.
//
// The app holds a single client session, like a browser tab would. With
// SESSIONGATE_PROVIDER_URL and SESSIONGATE_PROVIDER_KEY unset it starts an
// in-process miniredis and a throwaway Ed25519 signing key.
//
// Endpoints:
//
//	GET  /login          public-only; sign-in form
//	POST /auth/signin    form {subject, email}; signs in and redirects home
//	GET  /auth/callback  completes redirect-based sign-in
//	GET  /               protected; shows the signed-in user
//	POST /auth/signout   signs out and redirects to /login
//	GET  /metrics        Prometheus text exposition
//
// Run:
//
//	go run ./cmd/sessiongate-demo
package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"html/template"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MrEthical07/sessiongate"
	"github.com/MrEthical07/sessiongate/metrics/export/prometheus"
	"github.com/MrEthical07/sessiongate/middleware"
	"github.com/MrEthical07/sessiongate/provider"
	"github.com/alicebob/miniredis/v2"
	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
)

type serverConfig struct {
	Addr      string `env:"SESSIONGATE_ADDR" envDefault:":8080"`
	LogLevel  string `env:"SESSIONGATE_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"SESSIONGATE_LOG_FORMAT" envDefault:"text"`
}

func main() {
	var srvCfg serverConfig
	if err := env.Parse(&srvCfg); err != nil {
		log.Fatalf("parse env: %v", err)
	}
	logger := newLogger(srvCfg.LogLevel, srvCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := sessiongate.ConfigFromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	rdb, cleanup, err := setupRedis(&cfg)
	if err != nil {
		slog.Error("Failed to set up redis", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	client, err := sessiongate.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithLogger(logger).
		WithAuditSink(sessiongate.NewJSONWriterSink(os.Stdout)).
		Build()
	if err != nil {
		slog.Error("Failed to build client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client.Initialize(ctx)

	srv := &http.Server{
		Addr:              srvCfg.Addr,
		Handler:           routes(client, cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
	}()

	slog.Info("listening", "addr", srvCfg.Addr, "provider", client.ProviderConfigured())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
	}
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// setupRedis connects to the configured provider, or starts miniredis with a fresh
// signing key when the provider is not configured.
func setupRedis(cfg *sessiongate.Config) (*redis.Client, func(), error) {
	if cfg.Provider.Configured() {
		opts, err := redis.ParseURL(cfg.Provider.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		return rdb, func() { _ = rdb.Close() }, nil
	}

	slog.Warn("identity provider not configured; using in-process redis and an ephemeral key")

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start miniredis: %w", err)
	}
	key, err := ephemeralKey()
	if err != nil {
		mr.Close()
		return nil, nil, err
	}

	cfg.Provider.URL = "redis://" + mr.Addr()
	cfg.Provider.SigningMethod = "ed25519"
	cfg.Provider.SigningKey = key

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}, nil
}

func ephemeralKey() (string, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", fmt.Errorf("marshal key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})), nil
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func routes(client *sessiongate.Client, cfg sessiongate.Config) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET "+cfg.Routes.LoginPath, middleware.RequireAnonymous(client)(http.HandlerFunc(loginPage)))
	mux.Handle("GET "+cfg.Routes.CallbackPath, middleware.Callback(client, cfg.Routes.HomePath, cfg.Routes.LoginPath))
	mux.Handle("GET "+exactPath(cfg.Routes.HomePath), middleware.RequireAuth(client)(http.HandlerFunc(homePage)))
	mux.HandleFunc("POST /auth/signin", signInHandler(client, cfg))
	mux.HandleFunc("POST /auth/signout", signOutHandler(client, cfg))
	mux.Handle("GET /metrics", prometheus.NewExporter(client).Handler())

	return mux
}

// exactPath stops a trailing-slash pattern from matching every subpath.
func exactPath(p string) string {
	if strings.HasSuffix(p, "/") {
		return p + "{$}"
	}
	return p
}

var loginTmpl = template.Must(template.New("login").Parse(`<!doctype html>
<title>Sign in</title>
{{if .}}<p>{{.}}</p>{{end}}
<form method="post" action="/auth/signin">
<input name="subject" placeholder="user id" required>
<input name="email" type="email" placeholder="email">
<button>Sign in</button>
</form>`))

var homeTmpl = template.Must(template.New("home").Parse(`<!doctype html>
<title>Home</title>
<p>Signed in as {{.Subject}}{{with .Email}} ({{.}}){{end}}</p>
<form method="post" action="/auth/signout"><button>Sign out</button></form>`))

func loginPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = loginTmpl.Execute(w, r.URL.Query().Get("error"))
}

func homePage(w http.ResponseWriter, r *http.Request) {
	snap, ok := middleware.SnapshotFromContext(r.Context())
	if !ok || snap.Session == nil {
		http.Error(w, "no session", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = homeTmpl.Execute(w, snap.Session.User)
}

func signInHandler(client *sessiongate.Client, cfg sessiongate.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		err := client.SignIn(r.Context(), provider.SignInOptions{
			Provider: "password",
			Subject:  r.PostForm.Get("subject"),
			Email:    r.PostForm.Get("email"),
		})
		if err != nil {
			redirectWithError(w, r, cfg.Routes.LoginPath, err)
			return
		}
		http.Redirect(w, r, cfg.Routes.HomePath, http.StatusSeeOther)
	}
}

func signOutHandler(client *sessiongate.Client, cfg sessiongate.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := client.SignOut(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		http.Redirect(w, r, cfg.Routes.LoginPath, http.StatusSeeOther)
	}
}

func redirectWithError(w http.ResponseWriter, r *http.Request, path string, err error) {
	http.Redirect(w, r, path+"?"+url.Values{"error": {err.Error()}}.Encode(), http.StatusSeeOther)
}
