package themehttp

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/opinian/opinian/internal/authz"
	"github.com/opinian/opinian/internal/identity"
	"github.com/opinian/opinian/internal/platform/httpx"
	"github.com/opinian/opinian/internal/themes"
	"github.com/opinian/opinian/internal/themes/export"
)

// Handler exposes theme management endpoints. Theme management maps to the
// apply_theme action for authorization, which floors at Admin rank.
type Handler struct {
	logger   *slog.Logger
	service  *themes.Service
	resolver *themes.Resolver
	engine   *authz.Engine
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *themes.Service, resolver *themes.Resolver, engine *authz.Engine) *Handler {
	return &Handler{logger: logger, service: service, resolver: resolver, engine: engine}
}

// MountRoutes registers theme routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/groups/{groupID}/themes", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Post("/{themeID}/apply", h.apply)
	})
	r.Route("/themes/{themeID}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Delete("/", h.delete)
		r.Get("/component", h.component)
	})
}

type createRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Kind        string            `json:"kind"`
	StyleVars   map[string]string `json:"style_vars"`
	Document    json.RawMessage   `json:"document"`
	Prompt      string            `json:"prompt"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, groupID, ok := h.actorAndGroup(w, r)
	if !ok {
		return
	}
	decision := h.engine.Authorize(r.Context(), *actor, authz.ActionReadContent, authz.Target{
		Resource: "theme", GroupID: &groupID,
	})
	if !decision.Allowed {
		deny(w, decision)
		return
	}
	list, err := h.service.ListForGroup(r.Context(), groupID)
	if err != nil {
		h.logger.Error("list themes failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, groupID, ok := h.actorAndGroup(w, r)
	if !ok {
		return
	}
	decision := h.engine.Authorize(r.Context(), *actor, authz.ActionApplyTheme, authz.Target{
		Resource: "theme", GroupID: &groupID,
	})
	if !decision.Allowed {
		deny(w, decision)
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	theme, err := h.service.Create(r.Context(), themes.CreateInput{
		GroupID:     &groupID,
		Name:        req.Name,
		Description: req.Description,
		Kind:        themes.Kind(req.Kind),
		StyleVars:   req.StyleVars,
		Document:    req.Document,
		Prompt:      req.Prompt,
		CreatedBy:   actor.ID,
	})
	if err != nil {
		h.logger.Error("create theme failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, theme)
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request) {
	actor, groupID, ok := h.actorAndGroup(w, r)
	if !ok {
		return
	}
	themeID, err := strconv.ParseInt(chi.URLParam(r, "themeID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid theme id")
		return
	}
	decision := h.engine.Authorize(r.Context(), *actor, authz.ActionApplyTheme, authz.Target{
		Resource: "theme", ResourceID: strconv.FormatInt(themeID, 10), GroupID: &groupID,
	})
	if !decision.Allowed {
		deny(w, decision)
		return
	}
	if err := h.resolver.ApplyTheme(r.Context(), actor.ID, groupID, themeID); err != nil {
		h.logger.Error("apply theme failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"applied": themeID})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, theme, ok := h.actorAndTheme(w, r)
	if !ok {
		return
	}
	decision := h.engine.Authorize(r.Context(), *actor, authz.ActionReadContent, authz.Target{
		Resource: "theme", ResourceID: strconv.FormatInt(theme.ID, 10), GroupID: theme.GroupID,
	})
	if !decision.Allowed {
		deny(w, decision)
		return
	}
	httpx.JSON(w, http.StatusOK, theme)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor, theme, ok := h.actorAndTheme(w, r)
	if !ok {
		return
	}
	decision := h.engine.Authorize(r.Context(), *actor, authz.ActionApplyTheme, authz.Target{
		Resource: "theme", ResourceID: strconv.FormatInt(theme.ID, 10), GroupID: theme.GroupID,
	})
	if !decision.Allowed {
		deny(w, decision)
		return
	}
	if err := h.service.Delete(r.Context(), actor.ID, theme.ID); err != nil {
		h.logger.Error("delete theme failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// component serves the theme's component-based UI source for download.
func (h *Handler) component(w http.ResponseWriter, r *http.Request) {
	actor, theme, ok := h.actorAndTheme(w, r)
	if !ok {
		return
	}
	decision := h.engine.Authorize(r.Context(), *actor, authz.ActionReadContent, authz.Target{
		Resource: "theme", ResourceID: strconv.FormatInt(theme.ID, 10), GroupID: theme.GroupID,
	})
	if !decision.Allowed {
		deny(w, decision)
		return
	}
	// Manual themes carry no layout document, so there is no component
	// source to generate. That is a normal state, not a malformed request.
	if theme.Kind == themes.KindManual || len(theme.Document) == 0 {
		httpx.Problem(w, http.StatusConflict, "Conflict", "manual themes have no component source")
		return
	}
	doc, err := export.Decode(theme.Document)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="ThemePage.jsx"`)
	_, _ = w.Write([]byte(export.ComponentSource(doc)))
}

func (h *Handler) actorAndGroup(w http.ResponseWriter, r *http.Request) (*identity.User, int64, bool) {
	actor := identity.ActorFromContext(r.Context())
	if actor == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return nil, 0, false
	}
	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid group id")
		return nil, 0, false
	}
	return actor, groupID, true
}

func (h *Handler) actorAndTheme(w http.ResponseWriter, r *http.Request) (*identity.User, *themes.Theme, bool) {
	actor := identity.ActorFromContext(r.Context())
	if actor == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return nil, nil, false
	}
	themeID, err := strconv.ParseInt(chi.URLParam(r, "themeID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid theme id")
		return nil, nil, false
	}
	theme, err := h.service.Get(r.Context(), themeID)
	if err != nil {
		httpx.RespondError(w, err)
		return nil, nil, false
	}
	return actor, theme, true
}

func deny(w http.ResponseWriter, decision authz.Decision) {
	httpx.Problem(w, http.StatusForbidden, "Forbidden", string(decision.Reason))
}
