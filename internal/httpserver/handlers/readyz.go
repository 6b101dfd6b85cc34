package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/jbmon/internal/domain"
	"github.com/MrSnakeDoc/jbmon/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jbmon/internal/logger"
)

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// Readyz reports ready once both inventory files can be read.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, env := range domain.Environments() {
			if _, err := d.Store.ListHosts(env); err != nil {
				d.Logger.Warn("readiness check failed",
					logger.String("environment", env.String()),
					logger.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Error: "inventory unreadable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true})
	}
}
