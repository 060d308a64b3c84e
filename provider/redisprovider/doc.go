// Package redisprovider implements provider.Provider on top of Redis.
//
// The persisted client session lives under <prefix>:session:<storageKey>, encoded with
// [session.Encode] and expiring together with the session. Every sign-in and sign-out
// is published on <prefix>:events:<storageKey>; an empty payload means signed out.
//
// Identity tokens are minted and verified with a [jwt.Manager]. A persisted session
// whose token no longer verifies is reported as [provider.ErrRejected]; a session whose
// token has merely expired is reported as absent.
//
// # What this package must NOT do
//
//   - Refresh tokens. Expired sessions are absent, not renewed.
//   - Retry lookups. Pub/Sub reconnection is left to go-redis.
package redisprovider
