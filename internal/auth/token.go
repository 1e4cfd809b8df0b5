package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "schoolhub"

// DefaultValidity is the token validity window applied when no override is
// configured.
const DefaultValidity = 15 * 24 * time.Hour

// Claims is the signed token payload. Subject carries the user's login key
// as it was at issuance time.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies bearer tokens using HS256. The signing
// secret and validity window are fixed at construction and never mutated,
// so a single codec is safe for concurrent use.
type TokenCodec struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

// CodecOption configures TokenCodec construction.
type CodecOption func(*TokenCodec)

// WithValidity overrides the token validity window.
func WithValidity(d time.Duration) CodecOption {
	return func(c *TokenCodec) {
		if d > 0 {
			c.validity = d
		}
	}
}

// WithCodecClock overrides the time source (tests).
func WithCodecClock(fn func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewTokenCodec constructs a codec for the given signing secret.
func NewTokenCodec(secret string, opts ...CodecOption) (*TokenCodec, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	c := &TokenCodec{
		secret:   []byte(secret),
		validity: DefaultValidity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Validity returns the configured validity window.
func (c *TokenCodec) Validity() time.Duration { return c.validity }

// Issue signs a token whose subject is the given login key.
func (c *TokenCodec) Issue(subject string) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("auth: token subject is required")
	}

	now := c.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.validity)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and payload structure and returns the
// claims. Expiry is deliberately not checked here; IsValid layers the time
// and subject checks on top, so callers can still inspect expired tokens.
func (c *TokenCodec) Decode(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	parsed, err := parser.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != issuer {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IsValid reports whether the token decodes, has not expired, and carries
// the expected subject. Every failure yields false, never an error, so
// callers treat a bad token as "not authenticated" rather than a fault.
func (c *TokenCodec) IsValid(raw, expectedSubject string) bool {
	claims, err := c.Decode(raw)
	if err != nil {
		return false
	}
	if !c.now().UTC().Before(claims.ExpiresAt.Time) {
		return false
	}
	return claims.Subject == expectedSubject
}
