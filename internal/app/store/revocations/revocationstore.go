// Package revocationstore keeps the refresh-token blacklist in Redis.
//
// A revoked token id (jti) is stored as a key that expires together with
// the token, so the set never grows beyond the live tokens.
package revocationstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	client *redis.Client
	prefix string
}

func New(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(jti string) string { return fmt.Sprintf("%s:revoked:%s", s.prefix, jti) }

// Revoke blacklists jti until expiresAt. Tokens that already expired are
// ignored.
func (s *Store) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.key(jti), 1, ttl).Err()
}

// IsRevoked reports whether jti is blacklisted.
func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := s.client.Get(ctx, s.key(jti)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
