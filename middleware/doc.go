// Package middleware adapts sessiongate guards to net/http.
//
//   - [Guard] wraps a handler with a [sessiongate.Guard] decision.
//   - [RequireAuth] and [RequireAnonymous] pick the client's configured guards.
//   - [Callback] finishes a provider redirect and sends the browser on.
//
// Handlers reached through Guard find the session snapshot with
// [SnapshotFromContext]. Decisions are delegated to the guard; this package only
// translates them to status codes and redirects.
package middleware
