package password

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("expected a bcrypt hash, got %q", hash)
	}

	ok, err := h.Verify("correct horse", hash)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Error("correct password should verify")
	}

	ok, err = h.Verify("wrong horse", hash)
	if err != nil {
		t.Fatalf("Verify mismatch: %v", err)
	}
	if ok {
		t.Error("wrong password must not verify")
	}
}

func TestHashSaltsAreRandom(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	a, err := h.Hash("same input")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := h.Hash("same input")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if a == b {
		t.Error("two hashes of the same input must differ (random salt)")
	}
}

func TestVerifyCorruptHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	_, err := h.Verify("anything", "not-a-bcrypt-hash")
	if !errors.Is(err, ErrCorruptHash) {
		t.Fatalf("got %v, want ErrCorruptHash", err)
	}
}

func TestNewHasherCostFallback(t *testing.T) {
	for _, cost := range []int{-1, 0, 100} {
		h := NewHasher(cost)
		if h.cost != DefaultCost {
			t.Errorf("NewHasher(%d): got cost %d, want %d", cost, h.cost, DefaultCost)
		}
	}

	h := NewHasher(bcrypt.MinCost)
	if h.cost != bcrypt.MinCost {
		t.Errorf("valid cost should be kept: got %d, want %d", h.cost, bcrypt.MinCost)
	}
}
