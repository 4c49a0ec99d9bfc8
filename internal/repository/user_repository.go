package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/estate-service/internal/domain"
)

// UserRepository defines persistence access for listing owners. Refresh token
// rotation is expressed as a conditional update so concurrent refreshes for
// the same user resolve to exactly one winner at the store.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByRefreshToken(ctx context.Context, token string) (*domain.User, error)
	// RotateRefreshToken replaces the stored token only if it still equals
	// expectedOld; pgx.ErrNoRows signals the caller lost the race or the
	// token was never current.
	RotateRefreshToken(ctx context.Context, id, expectedOld, next string) error
	// SetRefreshToken unconditionally stores a token (login) or clears it
	// (logout, token == nil).
	SetRefreshToken(ctx context.Context, id string, token *string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, name, email, password_hash, refresh_token, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, refresh_token)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.RefreshToken,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *userRepository) GetByRefreshToken(ctx context.Context, token string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE refresh_token=$1`
	return r.fetchSingle(ctx, query, token)
}

func (r *userRepository) RotateRefreshToken(ctx context.Context, id, expectedOld, next string) error {
	const query = `
        UPDATE users SET refresh_token=$1, updated_at=NOW()
        WHERE id=$2 AND refresh_token=$3`

	cmd, err := r.pool.Exec(ctx, query, next, id, expectedOld)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) SetRefreshToken(ctx context.Context, id string, token *string) error {
	const query = `UPDATE users SET refresh_token=$1, updated_at=NOW() WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, token, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.RefreshToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
