// Package provider defines the contract sessiongate consumes from an external identity
// provider.
//
// The provider owns token storage, refresh, and reconnection. sessiongate only asks for
// the current session, subscribes to changes, and forwards sign-in/sign-out requests.
//
// # Error kinds
//
//   - [ErrUnavailable]: the provider could not be reached.
//   - [ErrRejected]: the provider answered with an error or a malformed session.
//   - [ErrNotConfigured]: no provider credentials were supplied.
//
// Implementations wrap these with fmt.Errorf("%w") so callers can use errors.Is.
package provider
