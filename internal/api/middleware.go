package api

import (
	"net/http"
	"strings"

	"github.com/reedfamily/reedcon/internal/auth"
)

func bearerToken(r *http.Request) string {
	token := r.Header.Get("Authorization")
	if strings.HasPrefix(token, "Bearer ") {
		return token[7:]
	}
	return ""
}

// AuthMiddleware requires a bearer session token. Websocket routes may pass it
// as the token query parameter instead, since browsers cannot set headers on
// upgrade requests.
func AuthMiddleware(authSvc *auth.Service, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" && allowQuery {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			user, err := authSvc.ValidateSession(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}

func actor(r *http.Request) string {
	if u := auth.UserFrom(r.Context()); u != nil {
		return u.Username
	}
	return ""
}
