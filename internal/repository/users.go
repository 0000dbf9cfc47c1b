package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/bookly/bookly-api/internal/auth"
	"github.com/bookly/bookly-api/internal/models"
)

// pqUniqueViolation is the SQLSTATE Postgres reports for a unique index hit.
const pqUniqueViolation = "23505"

const userColumns = `id, username, email, first_name, last_name, password_hash, is_verified, role, created_at, updated_at`

// PostgresUserStore implements auth.CredentialStore with PostgreSQL.
type PostgresUserStore struct {
	db *sql.DB
}

var _ auth.CredentialStore = (*PostgresUserStore)(nil)

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (r *PostgresUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PostgresUserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresUserStore) findOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.PasswordHash,
		&u.Verified,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// Save inserts a new user. A taken email is reported as auth.ErrUserAlreadyExists.
func (r *PostgresUserStore) Save(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.Verified,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return fmt.Errorf("insert user: %w", auth.ErrUserAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Update writes the non-nil fields and copies them onto user.
func (r *PostgresUserStore) Update(ctx context.Context, user *models.User, fields models.UserUpdate) error {
	now := time.Now().UTC()
	query := `UPDATE users SET updated_at = $1`
	args := []interface{}{now}
	argIdx := 2

	if fields.Verified != nil {
		query += fmt.Sprintf(", is_verified = $%d", argIdx)
		args = append(args, *fields.Verified)
		argIdx++
	}
	if fields.PasswordHash != nil {
		query += fmt.Sprintf(", password_hash = $%d", argIdx)
		args = append(args, *fields.PasswordHash)
		argIdx++
	}
	query += fmt.Sprintf(" WHERE id = $%d", argIdx)
	args = append(args, user.ID)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return auth.ErrUserNotFound
	}
	fields.Apply(user)
	user.UpdatedAt = now
	return nil
}
