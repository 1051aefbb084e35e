package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rryowa/nexus/internal/models"
)

// ErrTokenInvalid is the only failure of TokenCodec.Verify. Malformed, forged and
// expired tokens are indistinguishable to callers; the wrapped cause is for logs.
var ErrTokenInvalid = errors.New("token invalid")

// Claims is the payload carried by a signed token. Role is zero for refresh tokens.
type Claims struct {
	SubjectID string
	Role      models.Role
}

type jwtClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies HS512 tokens with one secret and lifetime.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenCodec(secret []byte, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: secret, ttl: ttl, now: time.Now}
}

func (c *TokenCodec) TTL() time.Duration { return c.ttl }

func (c *TokenCodec) Sign(claims Claims) (string, error) {
	now := c.now()
	jc := &jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   claims.SubjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	if claims.Role != 0 {
		jc.Role = claims.Role.String()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jc).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signed string: %w", err)
	}
	return signed, nil
}

func (c *TokenCodec) Verify(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(
		token,
		&jwtClaims{},
		func(*jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	jc, ok := parsed.Claims.(*jwtClaims)
	if !ok || !parsed.Valid || jc.Subject == "" {
		return nil, ErrTokenInvalid
	}

	claims := &Claims{SubjectID: jc.Subject}
	if jc.Role != "" {
		if claims.Role, err = models.ParseRole(jc.Role); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
		}
	}
	return claims, nil
}
