// Package httpapi assembles the HTTP surface. It should delegate to domain
// services without embedding business logic so transport concerns remain
// isolated.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"certguard/internal/platform/middleware"
	"certguard/pkg/platform/httputil"
)

// Registrar is implemented by each module's handler.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires all endpoints plus the health and metrics surface.
func NewRouter(modules ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	for _, m := range modules {
		m.Register(r)
	}
	return r
}
