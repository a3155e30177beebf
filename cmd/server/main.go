package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	accessctl "session-gate/internal/access"
	accountrepo "session-gate/internal/account/repository"
	adminservice "session-gate/internal/admin/service"
	"session-gate/internal/audit"
	auditrepo "session-gate/internal/audit/repository"
	authservice "session-gate/internal/auth/service"
	"session-gate/internal/config"
	"session-gate/internal/credential/repository"
	"session-gate/internal/db"
	"session-gate/internal/security"
	sessionrepo "session-gate/internal/session/repository"
	"session-gate/internal/server"
	"session-gate/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "session-gate", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	accounts := accountrepo.NewPostgresRepository(conn)
	credentials := repository.NewPostgresRepository(conn)
	sessions := sessionrepo.NewPostgresRepository(conn)
	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(conn))
	events := otel.NewEventEmitter(providers.LoggerProvider)

	hasher := security.NewHasher(cfg.BcryptCost)
	auth := authservice.NewAuthService(accounts, credentials, sessions, hasher, cfg.SessionTTL(), auditLogger, events)
	admin := adminservice.NewService(sessions, accounts, auditLogger)

	guard, err := accessctl.NewGuard(ctx)
	if err != nil {
		log.Fatalf("access: %v", err)
	}
	resolver := accessctl.NewResolver(sessions)

	router := server.NewRouter(server.Deps{
		Auth:         auth,
		Admin:        admin,
		Resolver:     resolver,
		Guard:        guard,
		DB:           conn,
		SessionTTL:   cfg.SessionTTL(),
		CookieSecure: cfg.CookieSecure,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
