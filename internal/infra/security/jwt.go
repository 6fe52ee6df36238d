package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType discriminates the two bearer token kinds the codec issues. A
// token of one type is never accepted where the other is required.
type TokenType string

const (
	// TokenTypeAccess marks short-lived tokens authorizing API requests.
	TokenTypeAccess TokenType = "access"
	// TokenTypeRefresh marks long-lived tokens used solely to mint new access tokens.
	TokenTypeRefresh TokenType = "refresh"
)

// ErrInvalidToken indicates the token failed signature, expiry, subject, or
// type validation. Callers treat it as a terminal unauthorized outcome.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims carries the subject email and the token type discriminator.
type Claims struct {
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies time-bound, typed bearer tokens carrying a
// subject identity. Tokens are signed (HS256), not encrypted. Rotating the
// secret invalidates every outstanding token.
type TokenCodec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenCodec constructs a codec from the signing secret and token TTLs.
func NewTokenCodec(secret string, accessTTL, refreshTTL time.Duration) (*TokenCodec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token codec: signing secret is required")
	}
	if accessTTL <= 0 {
		accessTTL = 300 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenCodec{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// WithClock overrides the codec clock (primarily for tests).
func (c *TokenCodec) WithClock(clock func() time.Time) {
	if clock != nil {
		c.now = clock
	}
}

// AccessTTL returns the configured access token lifetime.
func (c *TokenCodec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (c *TokenCodec) RefreshTTL() time.Duration { return c.refreshTTL }

// CreateAccessToken issues a signed access token for the subject email.
func (c *TokenCodec) CreateAccessToken(subjectEmail string) (string, error) {
	return c.create(subjectEmail, TokenTypeAccess, c.accessTTL)
}

// CreateRefreshToken issues a signed refresh token for the subject email.
func (c *TokenCodec) CreateRefreshToken(subjectEmail string) (string, error) {
	return c.create(subjectEmail, TokenTypeRefresh, c.refreshTTL)
}

func (c *TokenCodec) create(subjectEmail string, tokenType TokenType, ttl time.Duration) (string, error) {
	subjectEmail = strings.TrimSpace(subjectEmail)
	if subjectEmail == "" {
		return "", errors.New("token codec: subject email is required")
	}

	now := c.now().UTC()
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectEmail,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// VerifyToken validates signature, expiry, subject, and token type, returning
// the subject email. Every failure mode collapses into ErrInvalidToken: the
// caller gets no partial trust and no hint which check failed.
func (c *TokenCodec) VerifyToken(token string, expectedType TokenType) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now))
	if err != nil || parsed == nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return "", ErrInvalidToken
	}
	if claims.TokenType != expectedType {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
