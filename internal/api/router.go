// Package api is the HTTP surface: upload, status lookup, export and health.
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
)

func NewRouter(h *Handler, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(AccessLog(logger))
	r.Use(Recovery(logger))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", h.Upload)
		r.Get("/status/{acknowledgmentID}", h.Status)
		r.Get("/submissions/export", h.Export)
	})

	return r
}
