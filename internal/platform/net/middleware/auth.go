package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	perr "inferd/internal/platform/errors"
	pnet "inferd/internal/platform/net"
)

// BearerToken rejects requests whose Authorization header does not carry the
// configured inbound token. An empty token disables the check entirely; that
// is the documented open/local mode, not an error.
func BearerToken(token string, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			got, ok := bearer(r.Header.Get("Authorization"))
			if !ok {
				status, body := pnet.Error(perr.Unauthorizedf("missing bearer token"), pnet.RequestID(r.Context()))
				write(w, status, body)
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				status, body := pnet.Error(perr.Unauthorizedf("invalid token"), pnet.RequestID(r.Context()))
				write(w, status, body)
				return
			}
			next.ServeHTTP(w, r.WithContext(pnet.WithCaller(r.Context(), "backend")))
		})
	}
}

// bearer extracts the token from an "Authorization: Bearer x" header
func bearer(h string) (string, bool) {
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	if tok == "" {
		return "", false
	}
	return tok, true
}
