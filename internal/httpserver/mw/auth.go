package mw

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/jbmon/internal/auth"
	"github.com/MrSnakeDoc/jbmon/internal/logger"
)

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's identity in the request context.
func RequireAuth(tokens *auth.Service, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := auth.FromBearer(r.Header.Get("Authorization"))
			if err == nil {
				var id auth.Identity
				if id, err = tokens.Verify(raw); err == nil {
					next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
					return
				}
			}

			log.Debug("RequireAuth: rejected",
				logger.String("path", r.URL.Path),
				logger.Error(err))

			msg := "invalid token"
			switch {
			case errors.Is(err, auth.ErrMissingToken):
				msg = "missing token"
			case errors.Is(err, auth.ErrTokenExpired):
				msg = "token expired"
			}
			w.Header().Set("WWW-Authenticate", `Bearer realm="jbmon"`)
			reject(w, http.StatusUnauthorized, msg)
		})
	}
}
