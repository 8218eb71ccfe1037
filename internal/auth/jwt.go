// Package auth provides password hashing, JWT session tokens, and the
// middleware that puts the caller's identity into the request context.
//
// SESSION MODEL:
// A successful login (password or GitHub OAuth) issues a signed JWT and
// stores it in an HttpOnly cookie named "token". Every later request carries
// the cookie automatically; middleware validates the signature and expiry
// and exposes the user ID to handlers. No session table, no server-side
// state — the signed token IS the session.
//
// The identity extracted here is only a user ID. Role, ban status, and
// everything else that can change between requests is always re-read from
// the database, so revoking admin rights or banning a user takes effect on
// their very next request even though their token is still valid.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// sessionDuration is how long a login lasts before the user has to sign in
// again. A Q&A board is not a banking app; a week keeps people logged in
// without making a stolen token eternal.
const sessionDuration = 7 * 24 * time.Hour

const issuer = "quest"

// TokenService signs and verifies session tokens with an HMAC secret.
// The same secret does both, so it must never leave the server.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService. Secrets shorter than 16 characters
// are rejected outright — a guessable HMAC key makes every token forgeable.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims embeds jwt.RegisteredClaims; the user ID rides in the standard
// "sub" (Subject) field, so no custom claims are needed.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates a signed session token for the given userID, valid for
// sessionDuration.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, sessionDuration)
}

// GenerateWithDuration creates a token with a custom lifetime. Tests use it
// to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string and returns the user ID from
// its subject claim.
//
// WithValidMethods pins the algorithm to HS256 — without it, a token whose
// header claims alg "none" might sail through. WithIssuer rejects tokens
// minted by a different app sharing the secret, and WithExpirationRequired
// rejects tokens that simply omit "exp".
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
