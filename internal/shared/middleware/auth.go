package middleware

import (
	"context"
	"net/http"
	"strings"

	"mrk/internal/shared/auth"
	"mrk/internal/shared/logger"
)

type contextKey string

// UsernameKey holds the authenticated username in the request context.
const UsernameKey contextKey = "username"

// AccessTokenCookie is the cookie the login handler sets.
const AccessTokenCookie = "access_token"

// Auth rejects requests without a valid access token. The token is read
// from the Authorization header first, then from the access_token cookie.
func Auth(tokens *auth.JWT) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				if c, err := r.Cookie(AccessTokenCookie); err == nil {
					raw = c.Value
				}
			}
			if raw == "" {
				writeUnauthorized(w)
				return
			}

			claims, err := tokens.Validate(raw)
			if err != nil {
				l := logger.FromContext(r.Context())
				l.Debug().Err(err).Msg("rejected access token")
				writeUnauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), UsernameKey, claims.Username())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UsernameFromContext returns the username stored by Auth.
func UsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok && username != ""
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="mrk"`)
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"Unauthorized"}`))
}
