package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of Book.PublishedDate.
const DateLayout = "2006-01-02"

type Book struct {
	ID            uuid.UUID  `json:"uid"`
	Title         string     `json:"title"`
	Author        string     `json:"author"`
	Publisher     string     `json:"publisher"`
	PublishedDate time.Time  `json:"published_date"`
	PageCount     int        `json:"page_count"`
	Language      string     `json:"language"`
	UserID        *uuid.UUID `json:"user_uid,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// BookDetail is a book together with its reviews.
type BookDetail struct {
	Book
	Reviews       []Review        `json:"reviews"`
	AverageRating decimal.Decimal `json:"average_rating"`
}

type Review struct {
	ID        uuid.UUID  `json:"uid"`
	Rating    int        `json:"rating"`
	Comment   string     `json:"comment"`
	BookID    uuid.UUID  `json:"book_uid"`
	UserID    *uuid.UUID `json:"user_uid,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// AverageRating returns the mean rating of reviews rounded to two decimals,
// or zero when there are none.
func AverageRating(reviews []Review) decimal.Decimal {
	if len(reviews) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, r := range reviews {
		sum = sum.Add(decimal.NewFromInt(int64(r.Rating)))
	}
	return sum.Div(decimal.NewFromInt(int64(len(reviews)))).Round(2)
}

// Request types

// BookRequest is used for both create and update. PublishedDate uses DateLayout.
type BookRequest struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	Publisher     string `json:"publisher"`
	PublishedDate string `json:"published_date"`
	PageCount     int    `json:"page_count"`
	Language      string `json:"language"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// BookFilter holds query parameters for listing books.
type BookFilter struct {
	UserID uuid.UUID
	Limit  int
	Offset int
}
