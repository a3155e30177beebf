package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"session-gate/internal/audit/domain"
	auditrepo "session-gate/internal/audit/repository"
)

// Recorder writes a single audit event. Best-effort: failures never affect
// the caller. Implementations must not be handed secrets.
type Recorder interface {
	Record(ctx context.Context, actorID, action, targetID, detail string)
}

// Logger implements Recorder using the audit repository.
type Logger struct {
	repo auditrepo.Repository
}

// NewLogger returns a Recorder that persists to repo. repo may be nil; then
// Record is a no-op, so callers never need to nil-check.
func NewLogger(repo auditrepo.Repository) *Logger {
	return &Logger{repo: repo}
}

// Record writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) Record(ctx context.Context, actorID, action, targetID, detail string) {
	if l == nil || l.repo == nil {
		return
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		ActorID:   actorID,
		Action:    action,
		TargetID:  targetID,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to record %s: %v", action, err)
	}
}
