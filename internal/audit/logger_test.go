package audit

import (
	"context"
	"errors"
	"testing"

	"session-gate/internal/audit/domain"
)

type memAuditRepo struct {
	entries []*domain.AuditLog
	fail    bool
}

func (r *memAuditRepo) Create(ctx context.Context, a *domain.AuditLog) error {
	if r.fail {
		return errors.New("db down")
	}
	r.entries = append(r.entries, a)
	return nil
}

func (r *memAuditRepo) ListRecent(ctx context.Context, limit int32) ([]*domain.AuditLog, error) {
	return r.entries, nil
}

func TestRecord(t *testing.T) {
	repo := &memAuditRepo{}
	l := NewLogger(repo)

	l.Record(context.Background(), "actor-1", domain.ActionLogin, "actor-1", "username=alice1")

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	e := repo.entries[0]
	if e.ID == "" {
		t.Error("entry should get an ID")
	}
	if e.Action != domain.ActionLogin || e.ActorID != "actor-1" {
		t.Errorf("entry = %+v", e)
	}
	if e.CreatedAt.IsZero() {
		t.Error("entry should get a timestamp")
	}
}

func TestRecord_BestEffort(t *testing.T) {
	l := NewLogger(&memAuditRepo{fail: true})
	// Must not panic or propagate the repo error.
	l.Record(context.Background(), "", domain.ActionLogout, "", "")
}

func TestRecord_NilSafe(t *testing.T) {
	var l *Logger
	l.Record(context.Background(), "a", domain.ActionLogin, "a", "")
	NewLogger(nil).Record(context.Background(), "a", domain.ActionLogin, "a", "")
}
