// Package cache keeps rendered gift views in redis so the public gift page
// does not hit the order store on every visit.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bloomy-gift-service/internal/dto"
)

const giftKeyPrefix = "bloomy:gift:"

type GiftCache interface {
	// Get reports false on a miss.
	Get(ctx context.Context, giftCode string) (*dto.GiftResponse, bool, error)
	Set(ctx context.Context, giftCode string, gift *dto.GiftResponse) error
	Invalidate(ctx context.Context, giftCode string) error
}

type redisGiftCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisGiftCache(rdb *redis.Client, ttl time.Duration) GiftCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &redisGiftCache{rdb: rdb, ttl: ttl}
}

func giftKey(code string) string {
	return giftKeyPrefix + code
}

func (c *redisGiftCache) Get(ctx context.Context, giftCode string) (*dto.GiftResponse, bool, error) {
	raw, err := c.rdb.Get(ctx, giftKey(giftCode)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get gift: %w", err)
	}

	var gift dto.GiftResponse
	if err := json.Unmarshal(raw, &gift); err != nil {
		return nil, false, fmt.Errorf("decode cached gift: %w", err)
	}
	return &gift, true, nil
}

func (c *redisGiftCache) Set(ctx context.Context, giftCode string, gift *dto.GiftResponse) error {
	raw, err := json.Marshal(gift)
	if err != nil {
		return fmt.Errorf("encode gift: %w", err)
	}
	if err := c.rdb.Set(ctx, giftKey(giftCode), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set gift: %w", err)
	}
	return nil
}

func (c *redisGiftCache) Invalidate(ctx context.Context, giftCode string) error {
	if err := c.rdb.Del(ctx, giftKey(giftCode)).Err(); err != nil {
		return fmt.Errorf("redis del gift: %w", err)
	}
	return nil
}

type noopGiftCache struct{}

// NewNoopGiftCache is used when no redis is configured.
func NewNoopGiftCache() GiftCache {
	return noopGiftCache{}
}

func (noopGiftCache) Get(context.Context, string) (*dto.GiftResponse, bool, error) {
	return nil, false, nil
}

func (noopGiftCache) Set(context.Context, string, *dto.GiftResponse) error { return nil }

func (noopGiftCache) Invalidate(context.Context, string) error { return nil }
