package session

import (
	"context"
	"strings"

	pkgerrors "github.com/helashop/storefront-go/pkg/errors"
	"github.com/helashop/storefront-go/pkg/types"
)

// Storage keys shared by every backend.
const (
	tokenKey = "access_token"
	userKey  = "cached_user"
)

// Store is the durable session boundary: one opaque bearer token and one
// cached user-profile snapshot. Implementations never touch the network.
// An empty token return means no session; a stored token is never empty.
type Store interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
	CachedUser(ctx context.Context) (*types.UserSnapshot, error)
	SetCachedUser(ctx context.Context, user *types.UserSnapshot) error
	ClearUser(ctx context.Context) error
}

// ValidateToken guards the session invariant: a token written to storage is
// a well-formed non-empty string.
func ValidateToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return pkgerrors.New(pkgerrors.CodeInvalidToken, "token must be a non-empty string")
	}
	return nil
}
