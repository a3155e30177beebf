package security

import (
	"crypto/rand"
	"encoding/hex"
)

// TokenBytes is the entropy of a session token before hex encoding.
const TokenBytes = 32

// NewSessionToken returns an opaque, unguessable session token: TokenBytes of
// crypto/rand entropy, hex-encoded. The token carries no claims; it is only
// meaningful as a lookup key in the session store, which is what lets logout,
// replacement, and admin termination take effect immediately.
func NewSessionToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
