package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrSnakeDoc/jbmon/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jbmon/internal/logger"
)

// Metrics exposes d.Gatherer in the Prometheus text format.
func Metrics(d deps.Deps) http.Handler {
	return promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{
		ErrorLog:      promErrorLog{log: d.Logger},
		ErrorHandling: promhttp.ContinueOnError,
	})
}

type promErrorLog struct{ log logger.Logger }

func (l promErrorLog) Println(v ...any) {
	l.log.Warnf("metrics: %v", v)
}
