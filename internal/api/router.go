// Package api serves the worker's ops endpoints: liveness, readiness, status
// and Prometheus metrics.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lzjever/streaming-lag/internal/api/middleware"
	"github.com/lzjever/streaming-lag/internal/core"
)

// StatusSource is implemented by *worker.Worker.
type StatusSource interface {
	Status() core.Status
}

type API struct {
	source   StatusSource
	gatherer prometheus.Gatherer
	log      *zap.Logger
}

func NewAPI(source StatusSource, gatherer prometheus.Gatherer, log *zap.Logger) *API {
	return &API{source: source, gatherer: gatherer, log: log}
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recoverer(a.log))
	r.Use(middleware.Logger)

	r.Get("/healthz", a.HealthHandler)
	r.Get("/readyz", a.ReadyHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", a.StatusHandler)
	})

	return r
}
