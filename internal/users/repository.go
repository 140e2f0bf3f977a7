package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-pm/atrium/internal/platform/httpx"
	"github.com/atrium-pm/atrium/internal/shared"
)

const uniqueViolationCode = "23505"

// CreateParams carries the fields required to persist a new user.
type CreateParams struct {
	Email        string
	Name         string
	PasswordHash string
	RoleID       int64
	CreatedBy    int64
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `u.id, u.email, u.name, u.role_id, ro.name, u.created_by, u.is_active, u.created_at, u.updated_at`

// ListAll returns one page of active users plus the total count. Reserved
// for admin callers.
func (r *Repository) ListAll(ctx context.Context, pr shared.PageRequest) ([]User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM users WHERE deleted_at IS NULL`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users u
		 JOIN roles ro ON ro.id = u.role_id
		 WHERE u.deleted_at IS NULL ORDER BY u.id
		 LIMIT $1 OFFSET $2`, pr.Limit(), pr.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	users, err := scanUsers(rows)
	return users, total, err
}

// ListByIDs returns one page of the users whose identifiers are in ids plus
// the total count. An empty ids slice returns zero rows.
func (r *Repository) ListByIDs(ctx context.Context, ids []int64, pr shared.PageRequest) ([]User, int, error) {
	if len(ids) == 0 {
		return []User{}, 0, nil
	}
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM users WHERE id = ANY($1) AND deleted_at IS NULL`, ids).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users u
		 JOIN roles ro ON ro.id = u.role_id
		 WHERE u.id = ANY($1) AND u.deleted_at IS NULL ORDER BY u.id
		 LIMIT $2 OFFSET $3`, ids, pr.Limit(), pr.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	users, err := scanUsers(rows)
	return users, total, err
}

// GetByID fetches a single user.
func (r *Repository) GetByID(ctx context.Context, id int64) (User, error) {
	var user User
	err := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users u
		 JOIN roles ro ON ro.id = u.role_id
		 WHERE u.id = $1 AND u.deleted_at IS NULL`, id).
		Scan(&user.ID, &user.Email, &user.Name, &user.RoleID, &user.Role,
			&user.CreatedBy, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, shared.ErrNotFound
	}
	return user, err
}

// Create inserts a new user with created_by stamped from the creator.
func (r *Repository) Create(ctx context.Context, params CreateParams) (User, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash, role_id, created_by, is_active)
		 VALUES ($1, $2, $3, $4, $5, true)
		 RETURNING id`,
		params.Email, params.Name, params.PasswordHash, params.RoleID, params.CreatedBy).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return User{}, httpx.ErrDuplicate
		}
		return User{}, err
	}
	return r.GetByID(ctx, id)
}

// RoleName resolves a role name by ID.
func (r *Repository) RoleName(ctx context.Context, roleID int64) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `SELECT name FROM roles WHERE id = $1`, roleID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", shared.ErrNotFound
	}
	return name, err
}

// CreatorChain walks the created_by edges upward from userID, returning the
// visited identifiers in order. The walk stops after limit steps so corrupt
// data cannot loop forever.
func (r *Repository) CreatorChain(ctx context.Context, userID int64, limit int) ([]int64, error) {
	chain := make([]int64, 0, limit)
	current := userID
	for range limit {
		var parent *int64
		err := r.pool.QueryRow(ctx, `SELECT created_by FROM users WHERE id = $1`, current).Scan(&parent)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return chain, nil
			}
			return nil, err
		}
		if parent == nil {
			return chain, nil
		}
		chain = append(chain, *parent)
		current = *parent
	}
	return chain, nil
}

func scanUsers(rows pgx.Rows) ([]User, error) {
	users := []User{}
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.RoleID, &user.Role,
			&user.CreatedBy, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
