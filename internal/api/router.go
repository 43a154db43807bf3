package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", HealthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/images", app.UploadImageHandler)
		r.Get("/images", app.ListImagesHandler)
		r.Get("/images/{id}", app.ServeImageHandler)

		r.Post("/camera/open", app.OpenCameraHandler)
		r.Post("/camera/capture", app.CaptureFrameHandler)
		r.Post("/camera/close", app.CloseCameraHandler)

		r.Post("/classify", app.ClassifyHandler)

		r.Get("/status", app.StatusHandler)
		r.Get("/categories", app.CategoriesHandler)
		r.Get("/events", app.EventsHandler)
	})

	return r
}
