package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/bookly/bookly-api/internal/models"
)

var ErrReviewNotFound = errors.New("review not found")

// ReviewRepository defines the data-access interface for reviews.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	ListByBook(ctx context.Context, bookID uuid.UUID) ([]models.Review, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

const reviewColumns = `id, rating, comment, book_id, user_id, created_at, updated_at`

// PostgresReviewStore implements ReviewRepository with PostgreSQL.
type PostgresReviewStore struct {
	db *sql.DB
}

func NewPostgresReviewStore(db *sql.DB) *PostgresReviewStore {
	return &PostgresReviewStore{db: db}
}

func scanReview(row rowScanner) (models.Review, error) {
	var rv models.Review
	var author uuid.NullUUID
	err := row.Scan(
		&rv.ID,
		&rv.Rating,
		&rv.Comment,
		&rv.BookID,
		&author,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if author.Valid {
		rv.UserID = &author.UUID
	}
	return rv, err
}

// Create inserts a review after locking its book, so a review never lands on
// a book deleted concurrently. A missing book yields ErrBookNotFound.
func (r *PostgresReviewStore) Create(ctx context.Context, review *models.Review) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback()

	var bookID uuid.UUID
	err = dbTx.QueryRowContext(ctx, `SELECT id FROM books WHERE id = $1 FOR SHARE`, review.BookID).Scan(&bookID)
	if err == sql.ErrNoRows {
		return ErrBookNotFound
	}
	if err != nil {
		return fmt.Errorf("lock book: %w", err)
	}

	query := `
		INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = dbTx.ExecContext(ctx, query,
		review.ID,
		review.Rating,
		review.Comment,
		review.BookID,
		review.UserID,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	return dbTx.Commit()
}

// GetByID returns nil, nil when no review has the id.
func (r *PostgresReviewStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return &rv, nil
}

// ListByBook returns the reviews of a book, newest first.
func (r *PostgresReviewStore) ListByBook(ctx context.Context, bookID uuid.UUID) ([]models.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE book_id = $1 ORDER BY created_at DESC`, bookID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

func (r *PostgresReviewStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return expectOneRow(result, ErrReviewNotFound)
}
