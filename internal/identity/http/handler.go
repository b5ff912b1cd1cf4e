package identityhttp

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/opinian/opinian/internal/authz"
	"github.com/opinian/opinian/internal/identity"
	"github.com/opinian/opinian/internal/platform/httpx"
)

// Handler exposes account and tenant management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *identity.Service
	engine  *authz.Engine
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *identity.Service, engine *authz.Engine) *Handler {
	return &Handler{logger: logger, service: service, engine: engine}
}

// MountRoutes registers identity routes. Registration is public; everything
// else requires an authenticated actor.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/users", h.createUser)
	r.Post("/users/{userID}/role", h.assignRole)
	r.Post("/users/{userID}/ban", h.ban)
	r.Post("/groups", h.createGroup)
	r.Get("/groups/{groupID}/members", h.members)
}

type userView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	GroupID  *int64 `json:"group_id"`
	IsActive bool   `json:"is_active"`
	IsBanned bool   `json:"is_banned"`
}

func viewOf(u identity.User) userView {
	return userView{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role.String(),
		GroupID:  u.GroupID,
		IsActive: u.IsActive,
		IsBanned: u.IsBanned,
	}
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	user, err := h.service.Register(r.Context(), identity.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.logger.Error("register failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Registration Failed", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, viewOf(*user))
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	actor := identity.ActorFromContext(r.Context())
	if actor == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
		GroupID  *int64 `json:"group_id"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	role, err := identity.ParseRole(req.Role)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown role")
		return
	}
	// Administrators create accounts inside their own group unless they
	// are SuperAdmin; an omitted group defaults to the actor's.
	groupID := req.GroupID
	if groupID == nil {
		groupID = actor.GroupID
	}
	decision := h.engine.Authorize(r.Context(), *actor, authz.ActionCreateUser, authz.Target{
		Resource: "user", GroupID: groupID, Rank: role,
	})
	if !decision.Allowed {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", string(decision.Reason))
		return
	}
	user, err := h.service.CreateUser(r.Context(), identity.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
		GroupID:  groupID,
	})
	if err != nil {
		h.logger.Error("create user failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, viewOf(*user))
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	actor := identity.ActorFromContext(r.Context())
	if actor == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	role, err := identity.ParseRole(req.Role)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown role")
		return
	}
	target, err := h.service.Get(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	// The check covers both the target's current rank and the rank it
	// would end up with, so demoting a peer is as forbidden as promoting
	// someone onto your own tier.
	rank := target.Role
	if role < rank {
		rank = role
	}
	decision := h.engine.Authorize(r.Context(), *actor, authz.ActionAssignRole, authz.Target{
		Resource: "user", ResourceID: strconv.FormatInt(userID, 10), GroupID: target.GroupID, Rank: rank,
	})
	if !decision.Allowed {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", string(decision.Reason))
		return
	}
	if err := h.service.AssignRole(r.Context(), userID, role); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"role": role.String()})
}

func (h *Handler) ban(w http.ResponseWriter, r *http.Request) {
	actor := identity.ActorFromContext(r.Context())
	if actor == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	var req struct {
		Banned bool `json:"banned"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	target, err := h.service.Get(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	decision := h.engine.Authorize(r.Context(), *actor, authz.ActionModerate, authz.Target{
		Resource: "user", ResourceID: strconv.FormatInt(userID, 10), GroupID: target.GroupID, Rank: target.Role,
	})
	if !decision.Allowed {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", string(decision.Reason))
		return
	}
	if err := h.service.Ban(r.Context(), userID, req.Banned); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"banned": req.Banned})
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	actor := identity.ActorFromContext(r.Context())
	if actor == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	decision := h.engine.Authorize(r.Context(), *actor, authz.ActionCreateGroup, authz.Target{
		Resource: "group",
	})
	if !decision.Allowed {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", string(decision.Reason))
		return
	}
	input := identity.CreateGroupInput{Name: req.Name}
	if actor.Role == identity.RoleAdmin {
		input.OwnerID = &actor.ID
	}
	group, err := h.service.CreateGroup(r.Context(), input)
	if err != nil {
		h.logger.Error("create group failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	// An Admin creating a group joins it as the owning admin.
	if actor.Role == identity.RoleAdmin {
		if err := h.service.AssignGroup(r.Context(), actor.ID, &group.ID); err != nil {
			h.logger.Error("assign creator to group failed", slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusCreated, group)
}

func (h *Handler) members(w http.ResponseWriter, r *http.Request) {
	actor := identity.ActorFromContext(r.Context())
	if actor == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid group id")
		return
	}
	decision := h.engine.Authorize(r.Context(), *actor, authz.ActionReadContent, authz.Target{
		Resource: "group", ResourceID: strconv.FormatInt(groupID, 10), GroupID: &groupID,
	})
	if !decision.Allowed {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", string(decision.Reason))
		return
	}
	users, err := h.service.Members(r.Context(), groupID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	views := make([]userView, len(users))
	for i, u := range users {
		views[i] = viewOf(u)
	}
	httpx.JSON(w, http.StatusOK, views)
}
