package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d, want 10", cfg.BcryptCost)
	}
	if cfg.SessionTTL() != time.Hour {
		t.Errorf("SessionTTL = %v, want 1h", cfg.SessionTTL())
	}
	if cfg.ReaperInterval() != 10*time.Minute {
		t.Errorf("ReaperInterval = %v, want 10m", cfg.ReaperInterval())
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.OTLPEndpoint != "" {
		t.Errorf("OTLPEndpoint = %q, want empty", cfg.OTLPEndpoint)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/sessions")
	os.Setenv("BCRYPT_COST", "12")
	os.Setenv("SESSION_TTL", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.DatabaseURL != "postgres://u:p@localhost:5432/sessions" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.SessionTTL() != 30*time.Minute {
		t.Errorf("SessionTTL = %v, want 30m", cfg.SessionTTL())
	}
}

func TestLoad_InvalidBcryptCost(t *testing.T) {
	os.Clearenv()
	os.Setenv("BCRYPT_COST", "99")

	if _, err := Load(); err == nil {
		t.Fatal("Load with BCRYPT_COST=99 should return error")
	}
}

func TestSessionTTL_InvalidFallsBack(t *testing.T) {
	cfg := &Config{SessionTTLRaw: "not-a-duration"}
	if cfg.SessionTTL() != time.Hour {
		t.Errorf("SessionTTL = %v, want 1h fallback", cfg.SessionTTL())
	}
	cfg = &Config{SessionTTLRaw: "-5m"}
	if cfg.SessionTTL() != time.Hour {
		t.Errorf("negative SessionTTL = %v, want 1h fallback", cfg.SessionTTL())
	}
}
