// seed bootstraps a first admin account for local development and fresh
// deployments. Idempotent: skips the insert when the admin username already
// exists. Password comes from SEED_ADMIN_PASSWORD.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	accountdomain "session-gate/internal/account/domain"
	accountrepo "session-gate/internal/account/repository"
	"session-gate/internal/config"
	credentialdomain "session-gate/internal/credential/domain"
	"session-gate/internal/db"
	"session-gate/internal/security"
)

const (
	adminName     = "Administrator"
	adminUsername = "admin"
	adminEmail    = "admin@example.com"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		log.Fatal("SEED_ADMIN_PASSWORD is not set")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	accounts := accountrepo.NewPostgresRepository(conn)

	existing, err := accounts.GetByUsername(ctx, adminUsername)
	if err != nil {
		log.Fatalf("seed: lookup: %v", err)
	}
	if existing != nil {
		log.Printf("seed: admin account %q already exists, nothing to do", adminUsername)
		return
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	hash, err := hasher.Hash([]byte(password))
	if err != nil {
		log.Fatalf("seed: hash: %v", err)
	}

	now := time.Now().UTC()
	acct := &accountdomain.Account{
		ID:        uuid.New().String(),
		Name:      adminName,
		Username:  adminUsername,
		Email:     adminEmail,
		Role:      accountdomain.RoleAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := acct.Validate(); err != nil {
		log.Fatalf("seed: %v", err)
	}
	cred := &credentialdomain.Credential{
		ID:           uuid.New().String(),
		AccountID:    acct.ID,
		PasswordHash: hash,
		CreatedAt:    now,
	}

	if err := accounts.CreateWithCredential(ctx, acct, cred); err != nil {
		log.Fatalf("seed: create: %v", err)
	}
	log.Printf("seed: created admin account %q (%s)", adminUsername, acct.ID)
}
