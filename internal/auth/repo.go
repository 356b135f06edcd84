package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizdesk/bizdesk/internal/platform/db"
	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/shared"
)

// ErrEmailTaken is returned when provisioning a user with an existing email.
var ErrEmailTaken = fmt.Errorf("%w: email already registered", httpx.ErrDuplicate)

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, user User) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db db.DBTX
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{db: pool}
}

const userColumns = `id, name, email, password_hash, role, is_active, created_at, updated_at`

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, strings.TrimSpace(email))
	var user User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a user row and returns its id.
func (r *PGRepository) CreateUser(ctx context.Context, user User) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO users (name, email, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		user.Name, user.Email, user.PasswordHash, user.Role, user.IsActive).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err, "uq_users_email") {
			return 0, ErrEmailTaken
		}
		return 0, err
	}
	return id, nil
}

var _ Repository = (*PGRepository)(nil)
