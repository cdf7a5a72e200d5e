package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sevigo/shiny-updates/internal/core"
	"github.com/sevigo/shiny-updates/internal/metrics"
	"github.com/sevigo/shiny-updates/internal/search"
	"github.com/sevigo/shiny-updates/internal/server/handler"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Operations  *handler.OperationsHandler
	Status      *handler.StatusHandler
	Credentials *handler.CredentialsHandler
	Frame       *handler.FrameHandler
	Search      *handler.SearchHandler
	Events      *handler.EventsHandler
	Metrics     *metrics.Collector
}

// NewRouter creates and configures a new HTTP router with middleware and API routes.
func NewRouter(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if h.Metrics != nil {
		r.Use(h.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", h.Metrics.Handler())
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// the event stream outlives any request timeout
		r.Get("/events", h.Events.Handle)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/status", h.Status.Status)
			r.Get("/rows", h.Status.Rows)
			r.Post("/rows/{entity}/dismiss/*", h.Status.Dismiss)
			r.Get("/history", h.Status.History)

			r.Post("/plugins/install", h.Operations.Handle(core.KindInstallPlugin))
			r.Post("/plugins/update", h.Operations.Handle(core.KindUpdatePlugin))
			r.Post("/plugins/delete", h.Operations.Handle(core.KindDeletePlugin))
			r.Post("/themes/install", h.Operations.Handle(core.KindInstallTheme))
			r.Post("/themes/update", h.Operations.Handle(core.KindUpdateTheme))
			r.Post("/themes/delete", h.Operations.Handle(core.KindDeleteTheme))
			r.Post("/core/update", h.Operations.Handle(core.KindUpdateCore))
			r.Post("/translations/update", h.Operations.Handle(core.KindUpdateTranslations))
			r.Post("/updates/all", h.Operations.UpdateAll)

			r.Post("/credentials", h.Credentials.Submit)
			r.Delete("/credentials", h.Credentials.Cancel)

			r.Post("/frame", h.Frame.Handle)

			r.Get("/search/plugins", h.Search.Handle(search.ActionInstalledPlugins))
			r.Get("/search/plugins/install", h.Search.Handle(search.ActionInstallPlugins))
			r.Get("/search/themes", h.Search.Handle(search.ActionInstalledThemes))
			r.Get("/search/themes/install", h.Search.Handle(search.ActionInstallThemes))
		})
	})

	return r
}
