package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the verified content of an access token: who the bearer is and
// what role they were issued with. Authorization-sensitive checks must not
// trust Role alone; the request middleware re-fetches the user.
type Claims struct {
	UserID uint64
	Role   string
}

// Codec signs and verifies the short-lived HS256 access tokens. The secret
// and TTL are fixed at construction; the codec is immutable and safe for
// concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec builds a Codec from the configured signing secret and TTL in
// minutes.
func NewCodec(secret string, ttlMin int) *Codec {
	return &Codec{secret: []byte(secret), ttl: time.Duration(ttlMin) * time.Minute}
}

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Sign produces a signed access token for the user and returns it with its
// expiry so callers can report the window to clients.
func (c *Codec) Sign(userID uint64, role string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(c.ttl)
	claims := accessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify parses and validates an access token. Failures are distinguished
// so callers can tell the retryable case apart from tampering:
// ErrTokenExpired for a genuine expiry, ErrTokenSignature for a wrong
// signature, ErrTokenMalformed for anything that does not parse.
func (c *Codec) Verify(token string) (Claims, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrTokenSignature
		default:
			return Claims{}, ErrTokenMalformed
		}
	}
	uid, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || uid == 0 {
		return Claims{}, ErrTokenMalformed
	}
	return Claims{UserID: uid, Role: claims.Role}, nil
}
