package sitehttp

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/opinian/opinian/internal/platform/httpx"
	"github.com/opinian/opinian/internal/site"
)

// Handler serves rendered tenant pages. This is the public read path: no
// principal is required, and resolution always yields a renderable theme.
type Handler struct {
	logger   *slog.Logger
	renderer *site.Renderer
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, renderer *site.Renderer) *Handler {
	return &Handler{logger: logger, renderer: renderer}
}

// MountRoutes registers the public serving routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/sites/{groupID}/page", h.page)
	r.Get("/sites/{groupID}/stylesheet.css", h.stylesheet)
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	page, ok := h.render(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page.Markup))
}

func (h *Handler) stylesheet(w http.ResponseWriter, r *http.Request) {
	page, ok := h.render(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = w.Write([]byte(page.Stylesheet))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request) (site.Page, bool) {
	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid group id")
		return site.Page{}, false
	}
	page, err := h.renderer.RenderPage(r.Context(), groupID)
	if err != nil {
		h.logger.Error("render page failed", slog.Int64("group_id", groupID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return site.Page{}, false
	}
	return page, true
}
