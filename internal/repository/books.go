package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/bookly/bookly-api/internal/models"
)

var ErrBookNotFound = errors.New("book not found")

// BookRepository defines the data-access interface for books.
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	List(ctx context.Context, filter models.BookFilter) ([]models.Book, error)
	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id uuid.UUID) error
}

const bookColumns = `id, title, author, publisher, published_date, page_count, language, user_id, created_at, updated_at`

// PostgresBookStore implements BookRepository with PostgreSQL.
type PostgresBookStore struct {
	db *sql.DB
}

func NewPostgresBookStore(db *sql.DB) *PostgresBookStore {
	return &PostgresBookStore{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBook(row rowScanner) (models.Book, error) {
	var b models.Book
	var owner uuid.NullUUID
	err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.Publisher,
		&b.PublishedDate,
		&b.PageCount,
		&b.Language,
		&owner,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if owner.Valid {
		b.UserID = &owner.UUID
	}
	return b, err
}

func (r *PostgresBookStore) Create(ctx context.Context, book *models.Book) error {
	query := `
		INSERT INTO books (` + bookColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		book.ID,
		book.Title,
		book.Author,
		book.Publisher,
		book.PublishedDate,
		book.PageCount,
		book.Language,
		book.UserID,
		book.CreatedAt,
		book.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

// GetByID returns nil, nil when no book has the id.
func (r *PostgresBookStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	b, err := scanBook(r.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return &b, nil
}

// List returns books newest first, optionally restricted to one submitter.
func (r *PostgresBookStore) List(ctx context.Context, filter models.BookFilter) ([]models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE 1=1`

	args := []interface{}{}
	argIdx := 1

	if filter.UserID != uuid.Nil {
		query += fmt.Sprintf(" AND user_id = $%d", argIdx)
		args = append(args, filter.UserID)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.Limit)
		argIdx++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// Update overwrites the editable fields of book.
func (r *PostgresBookStore) Update(ctx context.Context, book *models.Book) error {
	query := `
		UPDATE books
		SET title = $1, author = $2, publisher = $3, published_date = $4, page_count = $5, language = $6, updated_at = $7
		WHERE id = $8`
	result, err := r.db.ExecContext(ctx, query,
		book.Title,
		book.Author,
		book.Publisher,
		book.PublishedDate,
		book.PageCount,
		book.Language,
		book.UpdatedAt,
		book.ID,
	)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	return expectOneRow(result, ErrBookNotFound)
}

// Delete removes a book and, through the foreign key, its reviews.
func (r *PostgresBookStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return expectOneRow(result, ErrBookNotFound)
}

func expectOneRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
