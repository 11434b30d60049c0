package auth

import (
	"encoding/hex"
	"testing"
)

func TestGenerateTokenLengthAndUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		raw, err := GenerateToken(TokenBytes)
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		if len(raw) != RawTokenLen {
			t.Fatalf("token length %d, want %d", len(raw), RawTokenLen)
		}
		if _, err := hex.DecodeString(raw); err != nil {
			t.Fatalf("token not hex: %v", err)
		}
		if seen[raw] {
			t.Fatal("duplicate token generated")
		}
		seen[raw] = true
	}
}

func TestDigestTokenDeterministic(t *testing.T) {
	raw, err := GenerateToken(TokenBytes)
	if err != nil {
		t.Fatal(err)
	}
	a, b := DigestToken(raw), DigestToken(raw)
	if a != b {
		t.Fatal("digest not deterministic")
	}
	if a == raw {
		t.Fatal("digest equals raw token")
	}
	if len(a) != 64 {
		t.Fatalf("digest length %d, want 64", len(a))
	}
	if DigestToken(raw+"x") == a {
		t.Fatal("different inputs share a digest")
	}
}
