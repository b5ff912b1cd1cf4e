package app

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/opinian/opinian/internal/identity"
	"github.com/opinian/opinian/internal/platform/httpx"
)

// ActorLoader resolves an authenticated principal from its ID. The session
// transport itself lives outside this service; an upstream gateway injects
// the principal ID as a header.
type ActorLoader interface {
	GetUser(ctx context.Context, id int64) (*identity.User, error)
}

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger *slog.Logger
	Config *Config
	Actors ActorLoader
}

// actorHeader carries the gateway-authenticated principal ID.
const actorHeader = "X-Opinian-Actor"

// MiddlewareStack installs the shared middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		FeaturePolicy:         "none",
		ContentSecurityPolicy: "default-src 'self'",
		SSLRedirect:           cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})

	actorMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(actorHeader)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Bad Actor Header", "")
				return
			}
			actor, err := cfg.Actors.GetUser(r.Context(), id)
			if err != nil {
				cfg.Logger.Warn("load actor failed", slog.Int64("actor_id", id), slog.Any("error", err))
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
				return
			}
			if !actor.IsActive || actor.IsBanned {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
				return
			}
			ctx := identity.ContextWithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	timeout := 30 * time.Second
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		timeout = cfg.Config.AppRequestTimeout
	}

	rateLimit := 120
	if cfg.Config != nil && cfg.Config.PublicRateLimit > 0 {
		rateLimit = cfg.Config.PublicRateLimit
	}

	return []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Timeout(timeout),
		secureMiddleware.Handler,
		httprate.LimitByIP(rateLimit, time.Minute),
		actorMiddleware,
	}
}

// RequireActor rejects requests that carry no authenticated principal.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity.ActorFromContext(r.Context()) == nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}
