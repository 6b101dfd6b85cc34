package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/jbmon/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jbmon/internal/httpserver/handlers"
)

func init() { Register(registerReports) }

func registerReports(r chi.Router, d deps.Deps) {
	api := r.With(apiMiddlewares(d)...)
	api.Get("/api/reports", handlers.ListReports(d))
	api.Get("/api/reports/{reportID}", handlers.GetReport(d))
}
