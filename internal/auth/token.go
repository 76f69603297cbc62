package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry is the locally-observable lifetime of the stored token. It is
// advisory only: the token stays opaque to the client and the server remains
// the authority on validity.
type TokenExpiry struct {
	ExpiresAt time.Time
	Expired   bool
}

// TokenExpiry peeks at the stored token's exp claim without verifying the
// signature. The second return is false when no token is stored, the token
// is not a JWT, or it carries no exp claim.
func (s *service) TokenExpiry(ctx context.Context) (TokenExpiry, bool) {
	token, err := s.store.Token(ctx)
	if err != nil || token == "" {
		return TokenExpiry{}, false
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return TokenExpiry{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return TokenExpiry{}, false
	}
	return TokenExpiry{
		ExpiresAt: exp.Time,
		Expired:   exp.Time.Before(time.Now()),
	}, true
}
