package sessiongate

import (
	"errors"

	"github.com/MrEthical07/sessiongate/provider"
)

var (
	// ErrProviderUnavailable marks provider transport failures.
	ErrProviderUnavailable = provider.ErrUnavailable
	// ErrProviderRejected marks provider error responses and malformed sessions.
	ErrProviderRejected = provider.ErrRejected
	// ErrProviderNotConfigured is returned by sign-in and sign-out when no provider is wired.
	ErrProviderNotConfigured = provider.ErrNotConfigured
	// ErrSignInFailed is returned when the provider callback reports an error.
	ErrSignInFailed = errors.New("sign in failed")
	// ErrNoSession is returned when a completed sign-in produced no session.
	ErrNoSession = errors.New("no session after sign in")
	// ErrBuilderUsed is returned by a second Build call.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrInvalidConfig wraps every Config.Validate failure.
	ErrInvalidConfig = errors.New("invalid config")
)
