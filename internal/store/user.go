package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"agendo-api/internal/model"
)

const userCols = `id, email, password_hash, name, phone, user_type, is_active, is_verified, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.Role,
		&u.IsActive, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, password_hash, name, phone, user_type, is_active, is_verified)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 RETURNING created_at, updated_at`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Phone, u.Role, u.IsActive, u.IsVerified,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	return mapErr(err)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

// ListUsers filters by role when role is non-empty. Newest first.
func (s *Store) ListUsers(ctx context.Context, role model.Role, limit, offset int) ([]model.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userCols+` FROM users
		 WHERE ($1 = '' OR user_type = $1)
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, string(role), limit, offset)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, mapErr(rows.Err())
}

// SetUserFlags updates is_active / is_verified; nil leaves a flag untouched.
func (s *Store) SetUserFlags(ctx context.Context, id string, active, verified *bool) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`UPDATE users
		 SET is_active = COALESCE($2, is_active),
		     is_verified = COALESCE($3, is_verified),
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userCols, id, active, verified))
}
