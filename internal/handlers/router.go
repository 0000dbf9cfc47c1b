package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bookly/bookly-api/internal/auth"
	"github.com/bookly/bookly-api/internal/httperr"
	"github.com/bookly/bookly-api/internal/middleware"
	"github.com/bookly/bookly-api/internal/models"
	"github.com/bookly/bookly-api/internal/repository"
)

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	Auth    *auth.Service
	Books   repository.BookRepository
	Reviews repository.ReviewRepository
	Limiter middleware.Limiter
}

// NewRouter wires every route of the API.
func NewRouter(d Deps) http.Handler {
	authH := NewAuthHandler(d.Auth, d.Books)
	bookH := NewBookHandler(d.Books, d.Reviews)
	reviewH := NewReviewHandler(d.Books, d.Reviews)

	requireAccess := middleware.RequireAccess(d.Auth)
	members := middleware.RequireRoles(d.Auth, models.RoleAdmin, models.RoleUser)
	limited := middleware.RateLimit(d.Limiter)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httperr.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(limited).Post("/signup", authH.Signup)
		r.With(limited).Post("/login", authH.Login)
		r.With(limited).Get("/refresh-token", authH.RefreshToken)
		r.Get("/logout", authH.Logout)
		r.With(requireAccess).Get("/me", authH.Me)
		r.Get("/verify/{token}", authH.VerifyEmail)
		r.With(limited).Post("/send_mail", authH.SendVerificationMail)
		r.With(limited).Post("/password-reset-request", authH.PasswordResetRequest)
		r.Post("/password-reset-confirm/{token}", authH.PasswordResetConfirm)
	})

	r.Route("/api/v1/books", func(r chi.Router) {
		r.Use(requireAccess, members)
		r.Get("/", bookH.List)
		r.Post("/", bookH.Create)
		r.Get("/user/{user_uid}", bookH.ListByUser)
		r.Get("/{book_uid}", bookH.Get)
		r.Patch("/{book_uid}", bookH.Update)
		r.Delete("/{book_uid}", bookH.Delete)
	})

	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Use(requireAccess, members)
		r.Post("/book/{book_uid}", reviewH.Submit)
		r.Get("/book/{book_uid}", reviewH.ListForBook)
		r.Delete("/{review_uid}", reviewH.Delete)
	})

	return r
}
