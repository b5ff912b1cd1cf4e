// Package authz evaluates whether an actor may perform an action on a
// resource belonging to a tenant. Denial is a first-class result, never an
// error: callers branch on the returned Decision.
package authz

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/opinian/opinian/internal/activity"
	"github.com/opinian/opinian/internal/identity"
)

// Action is a symbolic operation submitted for authorization.
type Action string

// The closed set of actions the engine understands.
const (
	ActionCreateUser   Action = "create_user"
	ActionAssignRole   Action = "assign_role"
	ActionCreateGroup  Action = "create_group"
	ActionApplyTheme   Action = "apply_theme"
	ActionReadContent  Action = "read_content"
	ActionWriteContent Action = "write_content"
	ActionModerate     Action = "moderate"
)

// Minimum rank required per action when the target carries no rank of its
// own. Actions absent from the map are open to any rank.
var actionFloor = map[Action]identity.Role{
	ActionCreateGroup:  identity.RoleAdmin,
	ActionApplyTheme:   identity.RoleAdmin,
	ActionModerate:     identity.RoleSuperUser,
	ActionWriteContent: identity.RoleUser,
}

// Reason explains a denial.
type Reason string

// Denial reasons.
const (
	ReasonTenantMismatch   Reason = "tenant_mismatch"
	ReasonInsufficientRank Reason = "insufficient_rank"
)

// Target identifies the resource an action operates on.
type Target struct {
	Resource   string
	ResourceID string
	// GroupID is the owning tenant. Nil means the resource is global and
	// the tenant check does not apply (e.g. creating a new group).
	GroupID *int64
	// Rank is the target user's intended or resulting rank. Zero for
	// non-user resources.
	Rank identity.Role
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow returns an allowing decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a denying decision with the given reason.
func Deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Recorder receives every decision for the activity trail.
type Recorder interface {
	Record(ctx context.Context, rec activity.Record) error
}

// Engine is the stateless access control evaluator. It holds no mutable
// state and is safe for use from any number of goroutines.
type Engine struct {
	recorder Recorder
	logger   *slog.Logger
}

// NewEngine constructs an Engine. The recorder may be nil in tests that do
// not assert on the trail.
func NewEngine(recorder Recorder, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{recorder: recorder, logger: logger}
}

// Authorize evaluates the role hierarchy and tenant isolation rules.
//
// SuperAdmin is total: it passes every check including the tenant one. Every
// other rank is confined to its own group and may only act on targets of
// strictly lower rank; equal rank is always denied, so no actor can modify a
// peer or elevate anyone to its own tier.
func (e *Engine) Authorize(ctx context.Context, actor identity.User, action Action, target Target) Decision {
	decision := e.evaluate(actor, action, target)
	e.record(ctx, actor, action, target, decision)
	return decision
}

func (e *Engine) evaluate(actor identity.User, action Action, target Target) Decision {
	if actor.Role == identity.RoleSuperAdmin {
		return Allow()
	}
	if target.GroupID != nil && !actor.Member(*target.GroupID) {
		return Deny(ReasonTenantMismatch)
	}
	if target.Rank != 0 {
		if !actor.Role.Outranks(target.Rank) {
			return Deny(ReasonInsufficientRank)
		}
		return Allow()
	}
	if floor, ok := actionFloor[action]; ok {
		if actor.Role > floor {
			return Deny(ReasonInsufficientRank)
		}
	}
	return Allow()
}

func (e *Engine) record(ctx context.Context, actor identity.User, action Action, target Target, decision Decision) {
	if e.recorder == nil {
		return
	}
	outcome := activity.OutcomeAllow
	if !decision.Allowed {
		outcome = activity.OutcomeDeny
	}
	rec := activity.Record{
		ActorID:    actor.ID,
		Action:     string(action),
		Resource:   target.Resource,
		ResourceID: target.ResourceID,
		GroupID:    target.GroupID,
		Outcome:    outcome,
		Reason:     string(decision.Reason),
	}
	if err := e.recorder.Record(ctx, rec); err != nil {
		// The decision still stands; losing a trail entry must not turn
		// an authorization check into a failure.
		e.logger.Error("record authorization decision",
			slog.String("action", string(action)),
			slog.String("outcome", outcome),
			slog.Any("error", err))
	}
}

// RequireAllowed converts a denial into an error for call sites that treat
// authorization as a precondition rather than a branch.
func RequireAllowed(d Decision) error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("authz: denied (%s)", d.Reason)
}
