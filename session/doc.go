// Package session defines the provider-issued [Session] value and its compact binary
// encoding.
//
// # Binary encoding
//
// Sessions are persisted by provider implementations in a versioned, length-prefixed,
// big-endian format. [Decode] rejects unknown versions and truncated input instead of
// guessing.
//
// # Architecture boundaries
//
// This package owns the [Session] model only. It does NOT verify tokens, talk to a
// provider, or decide whether a session grants access.
//
// # What this package must NOT do
//
//   - Import sessiongate, jwt, or provider (no upward imports).
//   - Mutate a Session after it has been handed to the state holder; use [Session.Clone].
package session
