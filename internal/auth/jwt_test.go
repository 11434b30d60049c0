package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCodecSignVerify(t *testing.T) {
	c := NewCodec("test-secret", 15)
	token, exp, err := c.Sign(42, "MANAGER")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if until := time.Until(exp); until < 14*time.Minute || until > 16*time.Minute {
		t.Fatalf("expiry window off: %s", until)
	}
	claims, err := c.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != 42 || claims.Role != "MANAGER" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestCodecVerifyExpired(t *testing.T) {
	// A negative TTL produces an already-expired token. Expiry must be
	// reported as its own kind: it is the one retryable failure.
	c := NewCodec("test-secret", -1)
	token, _, err := c.Sign(42, "VOLUNTEER")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("got %v, want ErrTokenExpired", err)
	}
}

func TestCodecVerifyWrongKey(t *testing.T) {
	token, _, err := NewCodec("secret-a", 15).Sign(42, "VOLUNTEER")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewCodec("secret-b", 15).Verify(token); !errors.Is(err, ErrTokenSignature) {
		t.Fatalf("got %v, want ErrTokenSignature", err)
	}
}

func TestCodecVerifyMalformed(t *testing.T) {
	c := NewCodec("test-secret", 15)
	for _, token := range []string{"", "garbage", "a.b", "a.b.c"} {
		if _, err := c.Verify(token); !errors.Is(err, ErrTokenMalformed) {
			t.Errorf("Verify(%q) = %v, want ErrTokenMalformed", token, err)
		}
	}
}

func TestCodecVerifyTamperedPayload(t *testing.T) {
	c := NewCodec("test-secret", 15)
	token, _, err := c.Sign(42, "VOLUNTEER")
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", token)
	}
	// Swapping the payload invalidates the signature.
	other, _, err := c.Sign(7, "ADMIN")
	if err != nil {
		t.Fatal(err)
	}
	forged := parts[0] + "." + strings.Split(other, ".")[1] + "." + parts[2]
	if _, err := c.Verify(forged); !errors.Is(err, ErrTokenSignature) {
		t.Fatalf("got %v, want ErrTokenSignature", err)
	}
}
