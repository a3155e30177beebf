package security

import (
	"runtime"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is a real bcrypt hash (cost 10) of a throwaway string. Login paths
// compare against it when no credential exists so an unknown username costs the
// same as a wrong password. Comparing any caller-supplied password to it fails.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Hasher hashes and verifies passwords using bcrypt. Callers must not log or
// persist plaintext passwords. Concurrent hash/compare calls are bounded so a
// burst of logins cannot starve unrelated requests of CPU.
type Hasher struct {
	Cost int
	sem  chan struct{}
}

// NewHasher returns a Hasher with the given bcrypt cost (4-31). Cost 10 is the
// default for interactive login.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	return &Hasher{Cost: cost, sem: make(chan struct{}, n)}
}

// Hash produces a bcrypt hash of password. Returns the hash as a string
// suitable for storage.
func (h *Hasher) Hash(password []byte) (string, error) {
	h.acquire()
	defer h.release()
	b, err := bcrypt.GenerateFromPassword(password, h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare verifies password against the stored hash using bcrypt's
// constant-time comparison. Returns nil if they match; returns an error
// (including bcrypt.ErrMismatchedHashAndPassword) if they do not or on
// invalid hash.
func (h *Hasher) Compare(hash string, password []byte) error {
	h.acquire()
	defer h.release()
	return bcrypt.CompareHashAndPassword([]byte(hash), password)
}

// CompareDummy burns one bcrypt verification against a fixed hash and always
// reports a mismatch. Call it on lookup misses so failure timing does not
// reveal whether an account or credential exists.
func (h *Hasher) CompareDummy(password []byte) error {
	return h.Compare(dummyHash, password)
}

func (h *Hasher) acquire() {
	if h.sem != nil {
		h.sem <- struct{}{}
	}
}

func (h *Hasher) release() {
	if h.sem != nil {
		<-h.sem
	}
}
