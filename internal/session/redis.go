package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pkgerrors "github.com/helashop/storefront-go/pkg/errors"
	"github.com/helashop/storefront-go/pkg/redis"
	"github.com/helashop/storefront-go/pkg/types"
)

// RedisStore keeps the session in Redis. Intended for shared deployments of
// the admin dashboard where several instances must see one session.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an established Redis connection.
func NewRedisStore(client *redis.Client) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Token(ctx context.Context) (string, error) {
	return s.get(ctx, tokenKey)
}

func (s *RedisStore) SetToken(ctx context.Context, token string) error {
	if err := ValidateToken(token); err != nil {
		return err
	}
	return s.client.Set(ctx, s.client.SessionKey(tokenKey), token, 0)
}

func (s *RedisStore) ClearToken(ctx context.Context) error {
	return s.client.Del(ctx, s.client.SessionKey(tokenKey))
}

func (s *RedisStore) CachedUser(ctx context.Context) (*types.UserSnapshot, error) {
	value, err := s.get(ctx, userKey)
	if err != nil || value == "" {
		return nil, err
	}
	var user types.UserSnapshot
	if err := json.Unmarshal([]byte(value), &user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDecode, err, "corrupt cached user")
	}
	return &user, nil
}

func (s *RedisStore) SetCachedUser(ctx context.Context, user *types.UserSnapshot) error {
	if user == nil {
		return s.ClearUser(ctx)
	}
	encoded, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode cached user: %w", err)
	}
	return s.client.Set(ctx, s.client.SessionKey(userKey), string(encoded), 0)
}

func (s *RedisStore) ClearUser(ctx context.Context) error {
	return s.client.Del(ctx, s.client.SessionKey(userKey))
}

func (s *RedisStore) get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.client.SessionKey(key))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("read session entry: %w", err)
	}
	return value, nil
}
