package utils

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maheshrc27/socialflow/internal/transfer"
)

// Audiences a token can be issued for. A token only verifies under the audience it
// was issued for.
const (
	AudienceSession    = "session"
	AudienceOAuthState = "oauth-state"
)

const tokenIssuer = "socialflow"

var ErrInvalidToken = errors.New("invalid token")

// TokenSigner issues and verifies HS256 tokens for a single audience.
type TokenSigner struct {
	key      []byte
	audience string
}

func NewTokenSigner(secret, audience string) (*TokenSigner, error) {
	switch {
	case secret == "":
		return nil, errors.New("secret key is not set")
	case audience == "":
		return nil, errors.New("token audience is not set")
	}
	return &TokenSigner{key: []byte(secret), audience: audience}, nil
}

// Issue signs a token naming subject that expires after ttl.
func (s *TokenSigner) Issue(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := transfer.CustomClaims{
		UserID: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	return signed, nil
}

// Verify checks signature, issuer, audience and expiry. Every rejection wraps
// ErrInvalidToken.
func (s *TokenSigner) Verify(raw string) (*transfer.CustomClaims, error) {
	claims := &transfer.CustomClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		slog.Info("token rejected", "audience", s.audience, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
