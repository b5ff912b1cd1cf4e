package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	activityhttp "github.com/opinian/opinian/internal/activity/http"
	identityhttp "github.com/opinian/opinian/internal/identity/http"
	"github.com/opinian/opinian/internal/observability"
	sitehttp "github.com/opinian/opinian/internal/site/http"
	themehttp "github.com/opinian/opinian/internal/themes/http"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Actors          ActorLoader
	Metrics         *observability.Metrics
	IdentityHandler *identityhttp.Handler
	ThemeHandler    *themehttp.Handler
	ActivityHandler *activityhttp.Handler
	SiteHandler     *sitehttp.Handler
}

// NewRouter constructs the chi.Router with Opinian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
		Actors: params.Actors,
	}) {
		r.Use(mw)
	}

	r.Use(params.Metrics.Middleware)
	r.Use(chimw.Logger)

	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	params.SiteHandler.MountRoutes(r)

	r.Group(func(r chi.Router) {
		params.IdentityHandler.MountRoutes(r)
		params.ThemeHandler.MountRoutes(r)
		params.ActivityHandler.MountRoutes(r)
	})

	return r
}
