// Worker sweeps expired sessions from the store on an interval. The sweep is
// garbage collection only: lookups already refuse expired sessions, so the
// system is correct with the worker stopped.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"session-gate/internal/config"
	"session-gate/internal/db"
	sessionrepo "session-gate/internal/session/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("worker: DATABASE_URL is required")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("worker: db: %v", err)
	}
	defer conn.Close()

	sessions := sessionrepo.NewPostgresRepository(conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("worker: shutting down...")
		cancel()
	}()

	interval := cfg.ReaperInterval()
	log.Printf("worker: sweeping expired sessions every %s", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		sweep(ctx, sessions)
		select {
		case <-ctx.Done():
			log.Println("worker: stopped")
			return
		case <-ticker.C:
		}
	}
}

func sweep(ctx context.Context, sessions *sessionrepo.PostgresRepository) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	n, err := sessions.DeleteExpired(sweepCtx, time.Now().UTC())
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("worker: sweep failed: %v", err)
		}
		return
	}
	if n > 0 {
		log.Printf("worker: removed %d expired sessions", n)
	}
}
