// Package sessiongate manages the client-side session lifecycle of an application that
// gates routes on an identity provider session.
//
// The application boots with an unknown authentication status. [Initializer] asks the
// provider once for a persisted session and pushes the answer into [State]; every
// [Guard] waits for that first answer before deciding, so navigations racing the boot
// lookup never see a stale anonymous status and never trigger a second lookup.
//
// # Architecture boundaries
//
// sessiongate is the public surface. It exposes [Client], [Builder], [Config], [State],
// [Initializer], and [Guard]. The identity provider is consumed through the
// provider.Provider interface and is never reached by guards.
//
// # What this package must NOT do
//
//   - Retry the initial lookup or refresh tokens; the provider owns both.
//   - Let a guard mutate session state.
//   - Return StatusLoading once the first update has been applied.
//
// # Concurrency
//
// All exported methods are safe for concurrent use. Guards evaluated before the first
// update block until it lands and then resume together.
package sessiongate
