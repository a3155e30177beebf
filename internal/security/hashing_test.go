package security

import (
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCompare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash([]byte("secret12"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "" || hash == "secret12" {
		t.Fatalf("Hash returned %q", hash)
	}
	if err := h.Compare(hash, []byte("secret12")); err != nil {
		t.Errorf("Compare with correct password: %v", err)
	}
	if err := h.Compare(hash, []byte("wrong")); err == nil {
		t.Error("Compare with wrong password should fail")
	}
}

func TestNewHasher_ClampsCost(t *testing.T) {
	if h := NewHasher(0); h.Cost != bcrypt.DefaultCost {
		t.Errorf("cost 0 → %d, want default %d", h.Cost, bcrypt.DefaultCost)
	}
	if h := NewHasher(1); h.Cost != bcrypt.MinCost {
		t.Errorf("cost 1 → %d, want min %d", h.Cost, bcrypt.MinCost)
	}
	if h := NewHasher(99); h.Cost != bcrypt.MaxCost {
		t.Errorf("cost 99 → %d, want max %d", h.Cost, bcrypt.MaxCost)
	}
}

func TestCompareDummy_AlwaysFails(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	for _, pw := range []string{"", "password", "secret12"} {
		if err := h.CompareDummy([]byte(pw)); err == nil {
			t.Errorf("CompareDummy(%q) should fail", pw)
		}
	}
}

func TestHasher_ConcurrentUse(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash([]byte("secret12"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := h.Compare(hash, []byte("secret12")); err != nil {
				t.Errorf("Compare: %v", err)
			}
		}()
	}
	wg.Wait()
}
