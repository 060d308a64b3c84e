package middleware

import (
	"net/http"

	"github.com/MrEthical07/sessiongate"
)

// RequireAuth guards routes that need a signed-in user.
func RequireAuth(client *sessiongate.Client) func(http.Handler) http.Handler {
	if client == nil {
		return Guard(nil)
	}
	return Guard(client.RequireAuth())
}

// RequireAnonymous guards routes only signed-out visitors should see, such as login.
func RequireAnonymous(client *sessiongate.Client) func(http.Handler) http.Handler {
	if client == nil {
		return Guard(nil)
	}
	return Guard(client.RequireAnonymous())
}
