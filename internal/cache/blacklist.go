package cache

import (
	"context"
	"time"
)

// TokenBlacklist marks tokens revoked until they would have expired anyway.
type TokenBlacklist struct {
	store Store
}

func NewTokenBlacklist(store Store) *TokenBlacklist {
	return &TokenBlacklist{store: store}
}

func blacklistKey(token string) string {
	return "blacklist:" + token
}

func (b *TokenBlacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return b.store.Set(ctx, blacklistKey(token), "revoked", ttl)
}

func (b *TokenBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	var val string
	hit, err := b.store.Get(ctx, blacklistKey(token), &val)
	if err != nil {
		return false, err
	}
	return hit && val == "revoked", nil
}
