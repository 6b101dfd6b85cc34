package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/jbmon/internal/auth"
	"github.com/MrSnakeDoc/jbmon/internal/domain"
	"github.com/MrSnakeDoc/jbmon/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jbmon/internal/logger"
	"github.com/MrSnakeDoc/jbmon/internal/utils"
)

type loginRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Environment string `json:"environment"`
}

type loginResponse struct {
	AccessToken string             `json:"access_token"`
	Environment domain.Environment `json:"environment"`
}

// Login exchanges an environment's dashboard credentials for a token.
func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "missing JSON in request")
			return
		}
		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "missing username or password")
			return
		}

		env := domain.ParseEnvironment(req.Environment)
		token, err := d.Tokens.Login(req.Username, req.Password, env)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				d.Logger.Warn("login rejected",
					logger.String("environment", env.String()),
					logger.String("remote_ip", utils.ClientIP(r, d.TrustProxy)))
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			d.Logger.Error("failed to issue token", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		d.Logger.Info("login",
			logger.String("username", req.Username),
			logger.String("environment", env.String()))
		writeJSON(w, http.StatusOK, loginResponse{AccessToken: token, Environment: env})
	}
}
