package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// TokenBytes is the entropy of every opaque token (refresh, verification,
// reset). 32 random bytes hex-encode to the 64-character strings clients
// see in cookies and email links.
const TokenBytes = 32

// RawTokenLen is the length of an encoded raw token. Handlers reject
// presented tokens of any other length before touching storage.
const RawTokenLen = TokenBytes * 2

// GenerateToken returns a hex-encoded token from n bytes of CSPRNG output.
// It fails only when the random source does.
func GenerateToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// DigestToken returns the hex SHA-256 digest of a raw token. Only digests
// are ever persisted or compared; a leaked table of digests cannot be
// replayed as tokens.
func DigestToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
