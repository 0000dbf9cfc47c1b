package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bookly/bookly-api/internal/auth"
	"github.com/bookly/bookly-api/internal/models"
)

// MemoryStore is a thread-safe in-memory implementation of every store the
// API needs, suitable for tests and local dev. Callers always get copies.
type MemoryStore struct {
	mu sync.RWMutex

	usersByID    map[uuid.UUID]*models.User
	usersByEmail map[string]*models.User
	books        map[uuid.UUID]*models.Book
	reviews      map[uuid.UUID]*models.Review
	revoked      map[string]time.Time

	now func() time.Time
}

var (
	_ auth.CredentialStore = (*MemoryStore)(nil)
	_ auth.RevocationStore = (*MemoryStore)(nil)
	_ BookRepository       = (*MemoryBooks)(nil)
	_ ReviewRepository     = (*MemoryReviews)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		usersByID:    make(map[uuid.UUID]*models.User),
		usersByEmail: make(map[string]*models.User),
		books:        make(map[uuid.UUID]*models.Book),
		reviews:      make(map[uuid.UUID]*models.Review),
		revoked:      make(map[string]time.Time),
		now:          time.Now,
	}
}

// ---------- Users ----------

func (m *MemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.usersByEmail[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.usersByID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) Save(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.usersByEmail[user.Email]; exists {
		return auth.ErrUserAlreadyExists
	}
	cp := *user
	m.usersByID[user.ID] = &cp
	m.usersByEmail[user.Email] = &cp
	return nil
}

func (m *MemoryStore) Update(_ context.Context, user *models.User, fields models.UserUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.usersByID[user.ID]
	if !ok {
		return auth.ErrUserNotFound
	}
	now := m.now().UTC()
	fields.Apply(stored)
	stored.UpdatedAt = now
	fields.Apply(user)
	user.UpdatedAt = now
	return nil
}

// SetRole changes the role of an account. Roles have no API of their own.
func (m *MemoryStore) SetRole(id uuid.UUID, role models.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.usersByID[id]; ok {
		u.Role = role
	}
}

// DeleteUser removes an account. Books and reviews it submitted keep a nil owner.
func (m *MemoryStore) DeleteUser(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.usersByID[id]
	if !ok {
		return
	}
	delete(m.usersByID, id)
	delete(m.usersByEmail, u.Email)
	for _, b := range m.books {
		if b.UserID != nil && *b.UserID == id {
			b.UserID = nil
		}
	}
	for _, rv := range m.reviews {
		if rv.UserID != nil && *rv.UserID == id {
			rv.UserID = nil
		}
	}
}

// ---------- Revocations ----------

func (m *MemoryStore) MarkRevoked(_ context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = m.now().Add(ttl)
	return nil
}

func (m *MemoryStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, ok := m.revoked[jti]
	if !ok {
		return false, nil
	}
	if !m.now().Before(expiry) {
		delete(m.revoked, jti)
		return false, nil
	}
	return true, nil
}

// ---------- Books ----------

// MemoryBooks adapts MemoryStore to BookRepository.
type MemoryBooks struct{ *MemoryStore }

// MemoryReviews adapts MemoryStore to ReviewRepository.
type MemoryReviews struct{ *MemoryStore }

func (m *MemoryStore) Books() MemoryBooks     { return MemoryBooks{m} }
func (m *MemoryStore) Reviews() MemoryReviews { return MemoryReviews{m} }

func (b MemoryBooks) Create(_ context.Context, book *models.Book) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := *book
	b.books[book.ID] = &cp
	return nil
}

func (b MemoryBooks) GetByID(_ context.Context, id uuid.UUID) (*models.Book, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	book, ok := b.books[id]
	if !ok {
		return nil, nil
	}
	cp := *book
	return &cp, nil
}

func (b MemoryBooks) List(_ context.Context, filter models.BookFilter) ([]models.Book, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	books := []models.Book{}
	for _, book := range b.books {
		if filter.UserID != uuid.Nil && (book.UserID == nil || *book.UserID != filter.UserID) {
			continue
		}
		books = append(books, *book)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].CreatedAt.After(books[j].CreatedAt) })
	return paginate(books, filter.Offset, filter.Limit), nil
}

func (b MemoryBooks) Update(_ context.Context, book *models.Book) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	stored, ok := b.books[book.ID]
	if !ok {
		return ErrBookNotFound
	}
	owner, created := stored.UserID, stored.CreatedAt
	*stored = *book
	stored.UserID, stored.CreatedAt = owner, created
	return nil
}

func (b MemoryBooks) Delete(_ context.Context, id uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.books[id]; !ok {
		return ErrBookNotFound
	}
	delete(b.books, id)
	for rid, rv := range b.reviews {
		if rv.BookID == id {
			delete(b.reviews, rid)
		}
	}
	return nil
}

// ---------- Reviews ----------

func (r MemoryReviews) Create(_ context.Context, review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[review.BookID]; !ok {
		return ErrBookNotFound
	}
	cp := *review
	r.reviews[review.ID] = &cp
	return nil
}

func (r MemoryReviews) GetByID(_ context.Context, id uuid.UUID) (*models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rv, ok := r.reviews[id]
	if !ok {
		return nil, nil
	}
	cp := *rv
	return &cp, nil
}

func (r MemoryReviews) ListByBook(_ context.Context, bookID uuid.UUID) ([]models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reviews := []models.Review{}
	for _, rv := range r.reviews {
		if rv.BookID == bookID {
			reviews = append(reviews, *rv)
		}
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].CreatedAt.After(reviews[j].CreatedAt) })
	return reviews, nil
}

func (r MemoryReviews) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reviews[id]; !ok {
		return ErrReviewNotFound
	}
	delete(r.reviews, id)
	return nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
