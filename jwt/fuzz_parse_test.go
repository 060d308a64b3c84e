package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"
)

// FuzzJWTParse exercises the identity token parser with arbitrary strings.
// Goal: no panics; invalid inputs must be rejected with errors.
func FuzzJWTParse(f *testing.F) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		f.Fatal(err)
	}
	mgr, err := NewManager(Config{
		TTL:        5 * time.Minute,
		PrivateKey: priv,
		Issuer:     "fuzz-test",
		Leeway:     30 * time.Second,
	})
	if err != nil {
		f.Fatal(err)
	}

	seed := IdentityClaims{SessionID: "sid"}
	seed.Subject = "user-1"
	valid, _, err := mgr.Issue(seed)
	if err == nil {
		f.Add(valid)
	}
	f.Add("")
	f.Add("a.b.c")
	f.Add("eyJhbGciOiJub25lIn0.e30.")

	f.Fuzz(func(t *testing.T, token string) {
		claims, err := mgr.Parse(token)
		if err == nil && claims.Subject == "" {
			t.Fatal("parsed claims without subject")
		}
	})
}
