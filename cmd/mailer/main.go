package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bookly/bookly-api/internal/config"
	"github.com/bookly/bookly-api/internal/mail"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to NATS
	nc, err := nats.Connect(cfg.NatsURL, nats.Name("bookly-mailer"))
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer nc.Close()
	log.Println("Connected to NATS")

	js, err := mail.EnsureStream(nc)
	if err != nil {
		log.Fatalf("Failed to set up mail stream: %v", err)
	}

	sender := mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.MailHost,
		Port:     cfg.MailPort,
		Username: cfg.MailUsername,
		Password: cfg.MailPassword,
		From:     cfg.MailFrom,
		FromName: cfg.MailFromName,
	})
	sub, err := mail.NewWorker(sender).Subscribe(js)
	if err != nil {
		log.Fatalf("Failed to subscribe to %s: %v", mail.Subject, err)
	}
	log.Printf("Mailer consuming %s as %q", mail.Subject, mail.QueueGroup)

	// Metrics and health
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if !nc.IsConnected() {
			http.Error(w, `{"status":"nats disconnected"}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"ok"}`)
	})
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Metrics server error: %v", err)
		}
	}()

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done
	log.Println("Shutting down mailer...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("WARN: metrics server shutdown: %v", err)
	}

	if err := sub.Drain(); err != nil {
		log.Printf("WARN: drain subscription: %v", err)
	}
	if err := nc.Drain(); err != nil {
		log.Printf("WARN: drain NATS: %v", err)
	}
	log.Println("Mailer stopped gracefully")
}
