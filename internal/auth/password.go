package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2Params controls the cost of password hashing. The defaults match
// what the rest of the deployment has been issuing; verification reads the
// parameters back out of the stored digest, so they can be raised without
// invalidating existing hashes.
type Argon2Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params are the production hashing costs: 64 MiB, 3 passes,
// 4 lanes.
var DefaultArgon2Params = Argon2Params{
	Memory:      64 * 1024,
	Time:        3,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// Hasher performs one-way password hashing with Argon2id. Digests are
// serialized in PHC string format ($argon2id$v=19$m=...,t=...,p=...$salt$hash)
// so the parameters travel with the digest.
type Hasher struct {
	params Argon2Params
}

// NewHasher returns a Hasher using the given parameters.
func NewHasher(p Argon2Params) *Hasher { return &Hasher{params: p} }

// Hash derives an Argon2id digest of plain with a fresh random salt. It
// fails only when the random source does.
func (h *Hasher) Hash(plain string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(plain), salt, h.params.Time, h.params.Memory, h.params.Parallelism, h.params.KeyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Time, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// Verify recomputes the digest of plain under the parameters encoded in
// digest and compares in constant time. A mismatch returns (false, nil);
// an error is returned only for digests this code never produced.
func (h *Hasher) Verify(digest, plain string) (bool, error) {
	salt, key, params, err := decodeDigest(digest)
	if err != nil {
		return false, err
	}
	computed := argon2.IDKey([]byte(plain), salt, params.Time, params.Memory, params.Parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

var errMalformedDigest = errors.New("malformed password digest")

func decodeDigest(digest string) (salt, key []byte, p Argon2Params, err error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, nil, p, errMalformedDigest
	}
	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, p, errMalformedDigest
	}
	for _, kv := range strings.Split(parts[3], ",") {
		pair := strings.SplitN(kv, "=", 2)
		if len(pair) != 2 {
			return nil, nil, p, errMalformedDigest
		}
		n, convErr := strconv.ParseUint(pair[1], 10, 32)
		if convErr != nil {
			return nil, nil, p, errMalformedDigest
		}
		switch pair[0] {
		case "m":
			p.Memory = uint32(n)
		case "t":
			p.Time = uint32(n)
		case "p":
			if n > 255 {
				return nil, nil, p, errMalformedDigest
			}
			p.Parallelism = uint8(n)
		default:
			return nil, nil, p, errMalformedDigest
		}
	}
	if p.Memory == 0 || p.Time == 0 || p.Parallelism == 0 {
		return nil, nil, p, errMalformedDigest
	}
	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, nil, p, errMalformedDigest
	}
	if key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(key) == 0 {
		return nil, nil, p, errMalformedDigest
	}
	return salt, key, p, nil
}
