package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/jbmon/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jbmon/internal/httpserver/handlers"
)

func init() { Register(registerMonitoring) }

func registerMonitoring(r chi.Router, d deps.Deps) {
	api := r.With(apiMiddlewares(d)...)
	api.Get("/api/monitoring/status", handlers.MonitoringStatus(d))
	api.Get("/api/monitoring/latest", handlers.LatestSnapshot(d))
	api.Get("/api/monitoring/history", handlers.SnapshotHistory(d))
	api.Get("/api/monitoring/instance/{instanceID}", handlers.InstanceStatus(d))
	if d.SweepTrigger != nil {
		api.Post("/api/monitoring/refresh", handlers.Refresh(d))
	}
}
