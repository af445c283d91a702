// Package auth reads the identity carried by an inbox credential.
//
// The client never verifies signatures; that is the server's job. It only
// looks inside a JWT credential to find the user it was issued for and to warn
// before an expired credential produces a wall of 401s.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSubject is returned when a token carries neither a subject nor a userId claim.
var ErrNoSubject = errors.New("token has no subject")

// Claims are the claims an inbox credential may carry. UserID takes precedence
// over the registered subject when both are present.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId,omitempty"`
}

// User returns the user the token was issued for.
func (c Claims) User() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.RegisteredClaims.Subject
}

// Info is what the client learned from a credential.
type Info struct {
	UserID    string
	ExpiresAt time.Time // zero when the token has no exp claim
}

// Expired reports whether the token had expired at now.
func (i Info) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// Inspect parses token without verifying its signature.
func Inspect(token string) (Info, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Info{}, fmt.Errorf("parse token: %w", err)
	}

	info := Info{UserID: claims.User()}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	if info.UserID == "" {
		return info, ErrNoSubject
	}
	return info, nil
}

// Sign issues an HS256 token for userID. The fake upstream uses it, and so do
// tests that need a realistic credential.
func Sign(secret []byte, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks an HS256 token against secret and returns its subject.
func Verify(secret []byte, token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("verify token: %w", err)
	}
	if !parsed.Valid {
		return "", errors.New("verify token: invalid")
	}
	if claims.User() == "" {
		return "", ErrNoSubject
	}
	return claims.User(), nil
}
