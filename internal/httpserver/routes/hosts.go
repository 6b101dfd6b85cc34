package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/jbmon/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jbmon/internal/httpserver/handlers"
)

func init() { Register(registerHosts) }

func registerHosts(r chi.Router, d deps.Deps) {
	api := r.With(apiMiddlewares(d)...)
	api.Get("/api/hosts", handlers.ListHosts(d))
	api.Post("/api/hosts", handlers.AddHost(d))
	api.Post("/api/hosts/bulk", handlers.BulkAddHosts(d))
	api.Post("/api/hosts/check-duplicate", handlers.CheckDuplicate(d))
	api.Delete("/api/hosts/{hostID}", handlers.DeleteHost(d))
	api.Post("/api/hosts/{hostID}/instances", handlers.AddInstance(d))
	api.Delete("/api/instances/{instanceID}", handlers.DeleteInstance(d))
}
