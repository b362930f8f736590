// Package auth verifies Whop user tokens and guards admin operations.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dyncarl8-oss/signalix-ai/config"
)

// UserTokenHeader carries the Whop user token on REST requests.
const UserTokenHeader = "x-whop-user-token"

var (
	ErrTokenInvalid = errors.New("invalid user token")
	ErrTokenExpired = errors.New("user token expired")
)

// Verifier validates Whop user tokens. When verification is disabled (local
// development) every request resolves to the development identity.
type Verifier struct {
	secret    []byte
	leeway    time.Duration
	devUserID string
	enabled   bool
}

// NewVerifier creates a verifier from auth configuration.
func NewVerifier(cfg config.AuthConfig) *Verifier {
	return &Verifier{
		secret:    []byte(cfg.WhopAppSecret),
		leeway:    cfg.TokenLeeway,
		devUserID: cfg.DevUserID,
		enabled:   cfg.Enabled,
	}
}

// DevUserID is the fixed development identity used when no user is attached.
func (v *Verifier) DevUserID() string {
	return v.devUserID
}

// VerifyUserToken parses and validates a Whop user token, returning the user
// ID it is bound to.
func (v *Verifier) VerifyUserToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithLeeway(v.leeway))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", ErrTokenInvalid
	}

	return subject, nil
}

// ResolveUserID returns the user bound to the token, or the development
// identity when verification is disabled or the token is absent/invalid.
func (v *Verifier) ResolveUserID(tokenString string) string {
	if !v.enabled || tokenString == "" {
		return v.devUserID
	}
	userID, err := v.VerifyUserToken(tokenString)
	if err != nil {
		return v.devUserID
	}
	return userID
}
