package activityhttp

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opinian/opinian/internal/activity"
	"github.com/opinian/opinian/internal/authz"
	"github.com/opinian/opinian/internal/identity"
	"github.com/opinian/opinian/internal/platform/httpx"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// Handler serves the activity timeline to the admin surface.
type Handler struct {
	logger  *slog.Logger
	service *activity.Service
	engine  *authz.Engine
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *activity.Service, engine *authz.Engine) *Handler {
	return &Handler{logger: logger, service: service, engine: engine}
}

// MountRoutes registers timeline routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/activity", h.timeline)
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	actor := identity.ActorFromContext(r.Context())
	if actor == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	filters := parseFilters(r)
	// Non-SuperAdmin actors only ever see their own group's trail. An
	// actor with no group has no trail to see; widening the query instead
	// would leak every tenant's activity.
	if actor.Role != identity.RoleSuperAdmin {
		if actor.GroupID == nil {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", string(authz.ReasonTenantMismatch))
			return
		}
		filters.GroupID = actor.GroupID
	}

	decision := h.engine.Authorize(r.Context(), *actor, authz.ActionModerate, authz.Target{
		Resource: "activity", GroupID: filters.GroupID,
	})
	if !decision.Allowed {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", string(decision.Reason))
		return
	}

	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.logger.Error("timeline query failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func parseFilters(r *http.Request) activity.TimelineFilters {
	q := r.URL.Query()
	filters := activity.TimelineFilters{
		Action:   q.Get("action"),
		PageSize: defaultPageSize,
		Page:     1,
	}
	if raw := q.Get("group_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filters.GroupID = &id
		}
	}
	if raw := q.Get("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.From = t
		}
	}
	if raw := q.Get("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.To = t
		}
	}
	if raw := q.Get("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page > 0 {
			filters.Page = page
		}
	}
	if raw := q.Get("page_size"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size > 0 && size <= maxPageSize {
			filters.PageSize = size
		}
	}
	return filters
}
