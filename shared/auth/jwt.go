package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind distinguishes short-lived access tokens from long-lived
// refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// ErrTokenInvalid covers every decode failure: bad signature, malformed
// payload, missing claims, unrecognized kind, or expiry in the past.
var ErrTokenInvalid = errors.New("invalid token")

// TokenClaims is the claim set carried by every bearer token: subject,
// expiry, and the token kind.
type TokenClaims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// Kind returns the token kind carried in the claims.
func (c *TokenClaims) Kind() TokenKind {
	return TokenKind(c.TokenType)
}

// TokenCodec mints and decodes HS256-signed bearer tokens. The signing
// secret is process-wide configuration, loaded once at startup.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

// NewTokenCodec creates a TokenCodec signing with the given secret.
func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Mint produces a signed token for subject with the given kind and an
// absolute expiry of now + ttl.
func (c *TokenCodec) Mint(subject string, kind TokenKind, ttl time.Duration) (string, error) {
	now := c.now()
	claims := TokenClaims{
		TokenType: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(c.secret)
}

// Decode verifies the signature and expiry and returns the claims. Every
// failure resolves to ErrTokenInvalid; parser internals never escape to
// the caller.
func (c *TokenCodec) Decode(tokenStr string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return c.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
	)
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	switch claims.Kind() {
	case TokenKindAccess, TokenKindRefresh:
	default:
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
