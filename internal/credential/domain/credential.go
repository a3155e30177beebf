package domain

import "time"

// Credential is the secret verifier bound 1:1 to an account. The hash is the
// only secret the system stores; it never crosses the service boundary.
type Credential struct {
	ID           string
	AccountID    string
	PasswordHash string
	CreatedAt    time.Time
}
