package activity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Outcomes attached to recorded decisions and mutations.
const (
	OutcomeAllow = "allow"
	OutcomeDeny  = "deny"
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Record is one immutable entry in the activity trail. Entries are append
// only; nothing in this package updates or deletes them.
type Record struct {
	ID         uuid.UUID
	ActorID    int64
	Action     string
	Resource   string
	ResourceID string
	GroupID    *int64
	Outcome    string
	Reason     string
	At         time.Time
}

// Recorder appends records into activity_log.
type Recorder struct {
	pool *pgxpool.Pool
}

// NewRecorder returns a new Recorder.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// Record persists the entry. Records are written before the triggering call
// returns so a crash afterwards still leaves an accurate trail.
func (r *Recorder) Record(ctx context.Context, rec Record) error {
	if r == nil {
		return errors.New("activity: recorder not initialised")
	}
	if rec.Action == "" || rec.Resource == "" {
		return errors.New("activity: record requires action and resource")
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO activity_log (id, actor_id, action, resource, resource_id, group_id, outcome, reason, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE(NULLIF($9, '0001-01-01 00:00:00Z'::timestamptz), NOW()))`,
		rec.ID, rec.ActorID, rec.Action, rec.Resource, rec.ResourceID, rec.GroupID, rec.Outcome, rec.Reason, rec.At)
	return err
}
