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

// ReviewHandler serves book reviews.
type ReviewHandler struct {
	books   repository.BookRepository
	reviews repository.ReviewRepository
}

func NewReviewHandler(books repository.BookRepository, reviews repository.ReviewRepository) *ReviewHandler {
	return &ReviewHandler{books: books, reviews: reviews}
}

// Submit adds the caller's review to a book.
// POST /api/v1/reviews/book/{book_uid}
func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	bookID, err := uuidParam(r, "book_uid", repository.ErrBookNotFound)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	var req models.ReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		httperr.Write(w, err)
		return
	}
	req.Comment = strings.TrimSpace(req.Comment)
	err = validation.ValidateStruct(&req,
		validation.Field(&req.Rating, validation.Required, validation.Min(1), validation.Max(5)),
		validation.Field(&req.Comment, validation.Required, validation.Length(1, 2000)),
	)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	now := time.Now().UTC()
	review := &models.Review{
		ID:        uuid.New(),
		Rating:    req.Rating,
		Comment:   req.Comment,
		BookID:    bookID,
		UserID:    &user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.reviews.Create(r.Context(), review); err != nil {
		httperr.Write(w, err)
		return
	}
	httperr.WriteJSON(w, http.StatusCreated, review)
}

// ListForBook returns the reviews of a book, newest first.
// GET /api/v1/reviews/book/{book_uid}
func (h *ReviewHandler) ListForBook(w http.ResponseWriter, r *http.Request) {
	book, err := loadBook(r, h.books)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	reviews, err := h.reviews.ListByBook(r.Context(), book.ID)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, reviews)
}

// Delete removes a review. Only its author or an admin may do so.
// DELETE /api/v1/reviews/{review_uid}
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "review_uid", repository.ErrReviewNotFound)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	review, err := h.reviews.GetByID(r.Context(), id)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	if review == nil {
		httperr.Write(w, repository.ErrReviewNotFound)
		return
	}
	user, _ := middleware.GetUser(r.Context())
	if !auth.CanModify(user, review.UserID) {
		httperr.Write(w, auth.ErrInsufficientPermission)
		return
	}
	if err := h.reviews.Delete(r.Context(), id); err != nil {
		httperr.Write(w, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, models.MessageResponse{Message: "Review deleted successfully"})
}
