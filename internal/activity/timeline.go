package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TimelineFilters narrows the timeline query.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	GroupID  *int64
	Action   string
	Page     int
	PageSize int
}

// PagingInfo describes the window returned by Timeline.
type PagingInfo struct {
	Page     int
	PageSize int
	HasNext  bool
	PrevPage int
	NextPage int
}

// Result wraps timeline rows with paging information.
type Result struct {
	Rows   []Record
	Paging PagingInfo
}

// Repository is the query surface the timeline service needs.
type Repository interface {
	TimelineWindow(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Record, error)
}

// Service coordinates reads over the activity trail for the admin surface.
type Service struct {
	repo Repository
}

// NewService builds a timeline service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline returns activity records, newest first, with paging.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("activity: repository not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize
	rows, err := s.repo.TimelineWindow(ctx, filters, pageSize+1, offset)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}

// PGRepository is the PostgreSQL timeline reader.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs the PostgreSQL timeline reader.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// TimelineWindow fetches one page of the trail, newest first.
func (r *PGRepository) TimelineWindow(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, actor_id, action, resource, resource_id, group_id, outcome, reason, occurred_at
		 FROM activity_log
		 WHERE ($1::timestamptz IS NULL OR occurred_at >= $1)
		   AND ($2::timestamptz IS NULL OR occurred_at <= $2)
		   AND ($3::bigint IS NULL OR group_id = $3)
		   AND ($4::text = '' OR action = $4)
		 ORDER BY occurred_at DESC, id DESC
		 LIMIT $5 OFFSET $6`,
		nullableTime(filters.From), nullableTime(filters.To), filters.GroupID, filters.Action, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.ActorID, &rec.Action, &rec.Resource, &rec.ResourceID, &rec.GroupID, &rec.Outcome, &rec.Reason, &rec.At); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
