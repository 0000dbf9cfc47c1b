package handlers

import (
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"

	"github.com/bookly/bookly-api/internal/auth"
	"github.com/bookly/bookly-api/internal/httperr"
	"github.com/bookly/bookly-api/internal/middleware"
	"github.com/bookly/bookly-api/internal/models"
	"github.com/bookly/bookly-api/internal/repository"
)

// BookHandler serves the book catalog.
type BookHandler struct {
	books   repository.BookRepository
	reviews repository.ReviewRepository
}

func NewBookHandler(books repository.BookRepository, reviews repository.ReviewRepository) *BookHandler {
	return &BookHandler{books: books, reviews: reviews}
}

func validateBook(req *models.BookRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&req.Author, validation.Required, validation.Length(1, 255)),
		validation.Field(&req.Publisher, validation.Required, validation.Length(1, 255)),
		validation.Field(&req.PublishedDate, validation.Required, validation.Date(models.DateLayout)),
		validation.Field(&req.PageCount, validation.Required, validation.Min(1)),
		validation.Field(&req.Language, validation.Required, validation.Length(1, 32)),
	)
}

// decodeBook reads and validates a BookRequest. PublishedDate is returned parsed.
func decodeBook(r *http.Request) (models.BookRequest, time.Time, error) {
	var req models.BookRequest
	if err := decodeJSON(r, &req); err != nil {
		return req, time.Time{}, err
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := validateBook(&req); err != nil {
		return req, time.Time{}, err
	}
	published, err := time.Parse(models.DateLayout, req.PublishedDate)
	return req, published, err
}

// List returns the catalog, newest first.
// GET /api/v1/books
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	books, err := h.books.List(r.Context(), models.BookFilter{Limit: limit, Offset: offset})
	if err != nil {
		httperr.Write(w, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, books)
}

// ListByUser returns the books one user submitted.
// GET /api/v1/books/user/{user_uid}
func (h *BookHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuidParam(r, "user_uid", auth.ErrUserNotFound)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	limit, offset := pagination(r)
	books, err := h.books.List(r.Context(), models.BookFilter{UserID: userID, Limit: limit, Offset: offset})
	if err != nil {
		httperr.Write(w, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, books)
}

// Create adds a book owned by the caller.
// POST /api/v1/books
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	req, published, err := decodeBook(r)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	now := time.Now().UTC()
	book := &models.Book{
		ID:            uuid.New(),
		Title:         req.Title,
		Author:        req.Author,
		Publisher:     req.Publisher,
		PublishedDate: published,
		PageCount:     req.PageCount,
		Language:      req.Language,
		UserID:        &user.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.books.Create(r.Context(), book); err != nil {
		httperr.Write(w, err)
		return
	}
	httperr.WriteJSON(w, http.StatusCreated, book)
}

// Get returns a book with its reviews and average rating.
// GET /api/v1/books/{book_uid}
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	book, err := h.load(r)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	reviews, err := h.reviews.ListByBook(r.Context(), book.ID)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, models.BookDetail{
		Book:          *book,
		Reviews:       reviews,
		AverageRating: models.AverageRating(reviews),
	})
}

// Update replaces the editable fields of a book. Only its owner or an admin
// may do so.
// PATCH /api/v1/books/{book_uid}
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	book, err := h.loadOwned(r)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	req, published, err := decodeBook(r)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	book.Title = req.Title
	book.Author = req.Author
	book.Publisher = req.Publisher
	book.PublishedDate = published
	book.PageCount = req.PageCount
	book.Language = req.Language
	book.UpdatedAt = time.Now().UTC()
	if err := h.books.Update(r.Context(), book); err != nil {
		httperr.Write(w, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, book)
}

// Delete removes a book and its reviews.
// DELETE /api/v1/books/{book_uid}
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	book, err := h.loadOwned(r)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	if err := h.books.Delete(r.Context(), book.ID); err != nil {
		httperr.Write(w, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, models.MessageResponse{Message: "Book deleted successfully"})
}

func (h *BookHandler) load(r *http.Request) (*models.Book, error) {
	return loadBook(r, h.books)
}

// loadBook fetches the book named by the book_uid path parameter.
func loadBook(r *http.Request, books repository.BookRepository) (*models.Book, error) {
	id, err := uuidParam(r, "book_uid", repository.ErrBookNotFound)
	if err != nil {
		return nil, err
	}
	book, err := books.GetByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, repository.ErrBookNotFound
	}
	return book, nil
}

func (h *BookHandler) loadOwned(r *http.Request) (*models.Book, error) {
	book, err := h.load(r)
	if err != nil {
		return nil, err
	}
	user, _ := middleware.GetUser(r.Context())
	if !auth.CanModify(user, book.UserID) {
		return nil, auth.ErrInsufficientPermission
	}
	return book, nil
}
