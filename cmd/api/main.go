package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/bookly/bookly-api/internal/auth"
	"github.com/bookly/bookly-api/internal/config"
	"github.com/bookly/bookly-api/internal/handlers"
	"github.com/bookly/bookly-api/internal/mail"
	"github.com/bookly/bookly-api/internal/repository"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Connect to PostgreSQL.
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}
	log.Println("connected to PostgreSQL")

	// Connect to Redis.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to ping Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("connected to Redis")

	// Connect to NATS.
	nc, err := nats.Connect(cfg.NatsURL, nats.Name("bookly-api"))
	if err != nil {
		log.Fatalf("failed to connect to NATS: %v", err)
	}
	defer nc.Close()
	dispatcher, err := mail.NewNATSDispatcher(nc)
	if err != nil {
		log.Fatalf("failed to set up mail queue: %v", err)
	}
	log.Println("connected to NATS")

	// Auth core.
	tokens, err := auth.NewTokenCodec(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		log.Fatalf("failed to build token codec: %v", err)
	}
	links, err := auth.NewLinkCodec(cfg.JWTSecret, cfg.LinkTokenTTL)
	if err != nil {
		log.Fatalf("failed to build link codec: %v", err)
	}
	svc := auth.NewService(auth.Options{
		Users:         repository.NewPostgresUserStore(db),
		Revocations:   repository.NewRedisRevocationStore(redisClient),
		Mailer:        dispatcher,
		Tokens:        tokens,
		Links:         links,
		Hasher:        auth.NewHasher(cfg.BcryptCost),
		RevocationTTL: cfg.RevocationTTL,
		PublicBaseURL: cfg.PublicBaseURL,
		Policy: auth.Policy{
			LoginRequiresVerified:    cfg.LoginRequiresVerified,
			RoleGateRequiresVerified: cfg.RoleGateRequiresVerified,
		},
	})

	router := handlers.NewRouter(handlers.Deps{
		Auth:    svc,
		Books:   repository.NewPostgresBookStore(db),
		Reviews: repository.NewPostgresReviewStore(db),
		Limiter: repository.NewRedisRateLimiter(redisClient, cfg.RateLimit, cfg.RateLimitWindow),
	})

	// Create HTTP server.
	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine.
	go func() {
		log.Printf("bookly-api listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down bookly-api...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	if err := nc.Drain(); err != nil {
		log.Printf("WARN: drain NATS: %v", err)
	}
	log.Println("bookly-api stopped")
}
