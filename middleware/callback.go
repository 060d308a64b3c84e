package middleware

import (
	"net/http"
	"net/url"

	"github.com/MrEthical07/sessiongate"
)

// Callback completes a redirect-based sign-in. Success redirects to successPath;
// failure redirects to failurePath with the reason in the error query parameter.
func Callback(client *sessiongate.Client, successPath, failurePath string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}

		if err := client.CompleteSignIn(r.Context(), r.URL.Query()); err != nil {
			if r.Context().Err() != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			http.Redirect(w, r, failurePath+"?"+url.Values{"error": {err.Error()}}.Encode(), http.StatusFound)
			return
		}

		http.Redirect(w, r, successPath, http.StatusFound)
	})
}
