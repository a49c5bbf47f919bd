package redis_storage

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kena741/zuluskills-admin/internal/app_errors"
	"github.com/kena741/zuluskills-admin/internal/models"
)

const (
	refreshPrefix   = "refresh:"
	userTokenPrefix = "user_refresh:"
	linkPrefix      = "magic_link:"
)

func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return client, nil
}

// TokenStore keeps refresh tokens and sign-in link tokens. Only hashes of
// the raw tokens are used as keys.
type TokenStore struct {
	client *redis.Client
}

func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func (s *TokenStore) SaveRefresh(ctx context.Context, userID models.ID, token string, ttl time.Duration) error {
	key := refreshPrefix + HashToken(token)
	userKey := userTokenPrefix + userID.Key()

	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, key, userID.Key(), ttl)
		p.SAdd(ctx, userKey, key)
		p.Expire(ctx, userKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

func (s *TokenStore) RefreshOwner(ctx context.Context, token string) (models.ID, error) {
	id, err := s.client.Get(ctx, refreshPrefix+HashToken(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", app_errors.ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get refresh token: %w", err)
	}
	return models.ID(id), nil
}

func (s *TokenStore) DeleteUserTokens(ctx context.Context, userID models.ID) error {
	userKey := userTokenPrefix + userID.Key()
	keys, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("list refresh tokens: %w", err)
	}
	if err := s.client.Del(ctx, append(keys, userKey)...).Err(); err != nil {
		return fmt.Errorf("delete refresh tokens: %w", err)
	}
	return nil
}

func (s *TokenStore) SaveLink(ctx context.Context, token, email string, ttl time.Duration) error {
	if err := s.client.Set(ctx, linkPrefix+HashToken(token), email, ttl).Err(); err != nil {
		return fmt.Errorf("save sign-in link: %w", err)
	}
	return nil
}

// ConsumeLink returns the email a link token was issued for and deletes it.
func (s *TokenStore) ConsumeLink(ctx context.Context, token string) (string, error) {
	email, err := s.client.GetDel(ctx, linkPrefix+HashToken(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", app_errors.ErrLinkExpired
	}
	if err != nil {
		return "", fmt.Errorf("consume sign-in link: %w", err)
	}
	return email, nil
}
