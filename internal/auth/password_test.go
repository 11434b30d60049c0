package auth

import (
	"strings"
	"testing"
)

// testParams keeps hashing cheap in tests; production costs live in
// DefaultArgon2Params.
var testParams = Argon2Params{
	Memory:      8 * 1024,
	Time:        1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func TestHashVerifyRoundTrip(t *testing.T) {
	h := NewHasher(testParams)
	digest, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(digest, "$argon2id$") {
		t.Fatalf("digest not in PHC format: %q", digest)
	}
	ok, err := h.Verify(digest, "correct horse battery staple")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("correct password rejected")
	}
	ok, err = h.Verify(digest, "wrong password")
	if err != nil {
		t.Fatalf("Verify mismatch returned error: %v", err)
	}
	if ok {
		t.Fatal("wrong password accepted")
	}
}

func TestHashUsesFreshSalt(t *testing.T) {
	h := NewHasher(testParams)
	a, err := h.Hash("pw")
	if err != nil {
		t.Fatal(err)
	}
	b, err := h.Hash("pw")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("two hashes of the same password are identical")
	}
}

func TestVerifyHonorsEncodedParams(t *testing.T) {
	// A digest produced under one parameter set must verify under a
	// hasher configured with another.
	old := NewHasher(testParams)
	digest, err := old.Hash("pw")
	if err != nil {
		t.Fatal(err)
	}
	upgraded := testParams
	upgraded.Time = 2
	ok, err := NewHasher(upgraded).Verify(digest, "pw")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("digest rejected after parameter change")
	}
}

func TestVerifyMalformedDigest(t *testing.T) {
	h := NewHasher(testParams)
	for _, digest := range []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=8192,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAA",
		"$argon2id$v=18$m=8192,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAA",
		"$argon2id$v=19$m=8192,t=1$AAAAAAAAAAAAAAAAAAAAAA$AAAA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$AAAA",
	} {
		if _, err := h.Verify(digest, "pw"); err == nil {
			t.Errorf("Verify(%q) accepted malformed digest", digest)
		}
	}
}
