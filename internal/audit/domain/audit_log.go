package domain

import "time"

// Actions recorded to the audit trail. Tokens, passwords, and hashes are
// never written; Detail carries usernames and ids only.
const (
	ActionLogin            = "login"
	ActionLoginFailed      = "login_failed"
	ActionRegister         = "register"
	ActionLogout           = "logout"
	ActionTerminateSession = "terminate_session"
	ActionToggleRole       = "toggle_role"
)

// AuditLog represents one audited event.
type AuditLog struct {
	ID        string
	ActorID   string // account that performed the action; empty for anonymous (failed login)
	Action    string
	TargetID  string // account or session acted upon
	Detail    string
	CreatedAt time.Time
}
