package tokenstore

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// KV is the subset of the redis client the blacklist needs
type KV interface {
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// RedisBlacklist keeps one key per revoked jti, expiring with the token
type RedisBlacklist struct {
	kv  KV
	now func() time.Time
}

// NewRedisBlacklist creates a redis backed blacklist
func NewRedisBlacklist(kv KV) *RedisBlacklist {
	return &RedisBlacklist{kv: kv, now: time.Now}
}

func blacklistKey(jti string) string {
	return "token:blacklist:" + jti
}

// Add revokes jti with a TTL equal to the token's remaining validity
func (b *RedisBlacklist) Add(ctx context.Context, jti string, userID uint, expiresAt time.Time) error {
	ttl := expiresAt.Sub(b.now())
	if ttl < time.Second {
		ttl = time.Second
	}

	ok, err := b.kv.SetNX(ctx, blacklistKey(jti), strconv.FormatUint(uint64(userID), 10), ttl)
	if err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	if !ok {
		return ErrAlreadyBlacklisted
	}
	return nil
}

// Contains reports whether jti is revoked
func (b *RedisBlacklist) Contains(ctx context.Context, jti string) (bool, error) {
	found, err := b.kv.Exists(ctx, blacklistKey(jti))
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return found, nil
}
