package middleware

import (
	"context"
	"net/http"

	"github.com/MrEthical07/sessiongate"
)

type snapshotContextKey struct{}

// SnapshotFromContext returns the session snapshot stored by Guard.
func SnapshotFromContext(ctx context.Context) (sessiongate.Snapshot, bool) {
	snap, ok := ctx.Value(snapshotContextKey{}).(sessiongate.Snapshot)
	return snap, ok
}

// Guard runs g before next. Requests wait for session initialization; a redirect
// decision answers 302 and a request abandoned while waiting answers 503.
func Guard(g *sessiongate.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g == nil {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}

			d, snap, err := g.Enter(r.Context())
			if err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			if !d.Allowed() {
				target := d.Redirect
				if target == "" {
					target = "/"
				}
				http.Redirect(w, r, target, http.StatusFound)
				return
			}

			ctx := context.WithValue(r.Context(), snapshotContextKey{}, snap)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
