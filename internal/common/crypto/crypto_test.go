package crypto

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndCompare(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "secret1" {
		t.Fatal("expected hash to differ from plaintext")
	}

	if err := h.Compare(hash, "secret1"); err != nil {
		t.Errorf("expected match, got %v", err)
	}
	if err := h.Compare(hash, "wrong"); err == nil {
		t.Error("expected mismatch error")
	}
}

func TestNewBcryptHasher_InvalidCostFallsBack(t *testing.T) {
	h := NewBcryptHasher(1000)
	if h.cost == 1000 {
		t.Fatal("expected cost to fall back to default")
	}
}

func TestRandomTokenGenerator_Unique(t *testing.T) {
	g := NewRandomTokenGenerator()
	seen := make(map[string]struct{})

	for i := 0; i < 100; i++ {
		tok, err := g.NewToken()
		if err != nil {
			t.Fatalf("new token: %v", err)
		}
		if len(tok) != 64 {
			t.Fatalf("expected 64 hex chars, got %d", len(tok))
		}
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token %s", tok)
		}
		seen[tok] = struct{}{}
	}
}

func TestHashToken_Deterministic(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Error("expected identical hashes")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Error("expected different hashes")
	}
}
