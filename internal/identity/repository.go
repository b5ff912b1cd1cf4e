package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for users and groups.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, username, email, password_hash, role, group_id, is_active, is_banned, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var user User
	var role int
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &role, &user.GroupID, &user.IsActive, &user.IsBanned, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	user.Role = Role(role)
	return &user, nil
}

// GetUser fetches a user by ID.
func (r *Repository) GetUser(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindByEmail fetches a user by email address.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// CreateUser inserts a new account and returns it with generated fields.
func (r *Repository) CreateUser(ctx context.Context, user User) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, role, group_id, is_active, is_banned)
		 VALUES ($1, $2, $3, $4, $5, TRUE, FALSE)
		 RETURNING `+userColumns,
		user.Username, user.Email, user.PasswordHash, int(user.Role), user.GroupID)
	return scanUser(row)
}

// UpdateUserRole reassigns a user's rank.
func (r *Repository) UpdateUserRole(ctx context.Context, id int64, role Role) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, id, int(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUserGroup moves a user into (or out of, with nil) a group.
func (r *Repository) UpdateUserGroup(ctx context.Context, id int64, groupID *int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET group_id = $2, updated_at = NOW() WHERE id = $1`, id, groupID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetBanned flips the banned flag. Banned accounts keep their rows so the
// activity trail stays intact.
func (r *Repository) SetBanned(ctx context.Context, id int64, banned bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_banned = $2, updated_at = NOW() WHERE id = $1`, id, banned)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateUser soft-deletes an account.
func (r *Repository) DeactivateUser(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsersForGroup returns all accounts belonging to a group, newest first.
func (r *Repository) ListUsersForGroup(ctx context.Context, groupID int64) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE group_id = $1 ORDER BY created_at DESC, id DESC`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

const groupColumns = `id, name, slug, owner_id, active_theme_id, is_active, created_at, updated_at`

func scanGroup(row pgx.Row) (*Group, error) {
	var group Group
	if err := row.Scan(&group.ID, &group.Name, &group.Slug, &group.OwnerID, &group.ActiveThemeID, &group.IsActive, &group.CreatedAt, &group.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &group, nil
}

// GetGroup fetches a group by ID.
func (r *Repository) GetGroup(ctx context.Context, id int64) (*Group, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+groupColumns+` FROM groups WHERE id = $1`, id)
	return scanGroup(row)
}

// CreateGroup inserts a new tenant.
func (r *Repository) CreateGroup(ctx context.Context, group Group) (*Group, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO groups (name, slug, owner_id, is_active)
		 VALUES ($1, $2, $3, TRUE)
		 RETURNING `+groupColumns,
		group.Name, group.Slug, group.OwnerID)
	return scanGroup(row)
}

// ListActiveGroupIDs returns the IDs of every active tenant.
func (r *Repository) ListActiveGroupIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM groups WHERE is_active = TRUE ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// DeactivateGroup soft-deletes a tenant. Member accounts and themes keep
// their rows; groups are never merged or removed.
func (r *Repository) DeactivateGroup(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE groups SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
