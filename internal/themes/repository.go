package themes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opinian/opinian/internal/platform/db"
)

// Store is the persistence surface for themes. The store is deliberately
// dumb: the single-active invariant is enforced by the resolver's
// transaction plus a partial unique index, not by the store itself.
type Store interface {
	Create(ctx context.Context, params CreateParams) (*Theme, error)
	Get(ctx context.Context, id int64) (*Theme, error)
	ListForGroup(ctx context.Context, groupID int64) ([]Theme, error)
	Delete(ctx context.Context, id int64) error
	// ActiveReference returns the group's stored active-theme reference,
	// nil when the group has never had a theme applied.
	ActiveReference(ctx context.Context, groupID int64) (*int64, error)
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error
}

// TxStore exposes the operations the apply-theme swap needs inside one
// transaction.
type TxStore interface {
	// LockGroup takes the per-group row lock serializing concurrent
	// apply calls for the same group, and returns the current active
	// theme reference.
	LockGroup(ctx context.Context, groupID int64) (*int64, error)
	GetTheme(ctx context.Context, id int64) (*Theme, error)
	DeactivateActive(ctx context.Context, groupID int64) error
	Activate(ctx context.Context, themeID int64) error
	SetGroupActiveTheme(ctx context.Context, groupID int64, themeID int64) error
}

// CreateParams carries the fields for a new theme. New themes always start
// inactive; activation goes through the resolver.
type CreateParams struct {
	GroupID     *int64
	Name        string
	Description string
	Kind        Kind
	StyleVars   map[string]string
	Document    []byte
	Prompt      string
	CreatedBy   int64
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const themeColumns = `id, group_id, name, description, kind, style_vars, document, prompt, active, created_by, created_at, updated_at`

func scanTheme(row pgx.Row) (*Theme, error) {
	var theme Theme
	var kind string
	var styleVars []byte
	if err := row.Scan(&theme.ID, &theme.GroupID, &theme.Name, &theme.Description, &kind, &styleVars, &theme.Document, &theme.Prompt, &theme.Active, &theme.CreatedBy, &theme.CreatedAt, &theme.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	theme.Kind = Kind(kind)
	if len(styleVars) > 0 {
		if err := json.Unmarshal(styleVars, &theme.StyleVars); err != nil {
			return nil, fmt.Errorf("themes: decode style vars: %w", err)
		}
	}
	return &theme, nil
}

// Create inserts a new inactive theme.
func (r *Repository) Create(ctx context.Context, params CreateParams) (*Theme, error) {
	if !params.Kind.Valid() {
		return nil, fmt.Errorf("themes: invalid kind %q", params.Kind)
	}
	styleVars, err := json.Marshal(params.StyleVars)
	if err != nil {
		return nil, fmt.Errorf("themes: encode style vars: %w", err)
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO themes (group_id, name, description, kind, style_vars, document, prompt, active, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8)
		 RETURNING `+themeColumns,
		params.GroupID, params.Name, params.Description, string(params.Kind), styleVars, params.Document, params.Prompt, params.CreatedBy)
	return scanTheme(row)
}

// Get fetches a theme by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Theme, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+themeColumns+` FROM themes WHERE id = $1`, id)
	return scanTheme(row)
}

// ListForGroup returns the group's themes, newest first.
func (r *Repository) ListForGroup(ctx context.Context, groupID int64) ([]Theme, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+themeColumns+` FROM themes WHERE group_id = $1 ORDER BY created_at DESC, id DESC`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var themes []Theme
	for rows.Next() {
		theme, err := scanTheme(rows)
		if err != nil {
			return nil, err
		}
		themes = append(themes, *theme)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return themes, nil
}

// Delete removes a theme. A theme that is live for its group must be
// replaced first; deleting it returns ErrConflict.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM themes WHERE id = $1 AND active = FALSE`, id)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.ConstraintName == "fk_groups_active_theme" {
			return ErrConflict
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		var active bool
		if scanErr := r.pool.QueryRow(ctx, `SELECT active FROM themes WHERE id = $1`, id).Scan(&active); scanErr != nil {
			if errors.Is(scanErr, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return scanErr
		}
		return ErrConflict
	}
	return nil
}

// ActiveReference reads the group's active-theme pointer.
func (r *Repository) ActiveReference(ctx context.Context, groupID int64) (*int64, error) {
	var ref *int64
	if err := r.pool.QueryRow(ctx, `SELECT active_theme_id FROM groups WHERE id = $1`, groupID).Scan(&ref); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ref, nil
}

// WithTx runs fn inside one transaction with all swap operations bound to it.
func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) LockGroup(ctx context.Context, groupID int64) (*int64, error) {
	var activeThemeID *int64
	if err := t.tx.QueryRow(ctx, `SELECT active_theme_id FROM groups WHERE id = $1 FOR UPDATE`, groupID).Scan(&activeThemeID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return activeThemeID, nil
}

func (t *txRepository) GetTheme(ctx context.Context, id int64) (*Theme, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+themeColumns+` FROM themes WHERE id = $1`, id)
	return scanTheme(row)
}

func (t *txRepository) DeactivateActive(ctx context.Context, groupID int64) error {
	_, err := t.tx.Exec(ctx, `UPDATE themes SET active = FALSE, updated_at = NOW() WHERE group_id = $1 AND active = TRUE`, groupID)
	return err
}

func (t *txRepository) Activate(ctx context.Context, themeID int64) error {
	tag, err := t.tx.Exec(ctx, `UPDATE themes SET active = TRUE, updated_at = NOW() WHERE id = $1`, themeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepository) SetGroupActiveTheme(ctx context.Context, groupID int64, themeID int64) error {
	tag, err := t.tx.Exec(ctx, `UPDATE groups SET active_theme_id = $2, updated_at = NOW() WHERE id = $1`, groupID, themeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
