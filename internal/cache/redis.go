package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jetstreamair/jetshare/config"
	"github.com/jetstreamair/jetshare/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client        *redis.Client
	openOffersTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, openOffersTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:        redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		openOffersTTL: openOffersTTL,
	}
}

func (c *RedisCache) GetOpenOffers(ctx context.Context) ([]domain.Offer, error) {
	data, err := c.client.Get(ctx, openOffersKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var offers []domain.Offer
	if err := json.Unmarshal(data, &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

func (c *RedisCache) SetOpenOffers(ctx context.Context, offers []domain.Offer) error {
	payload, err := json.Marshal(offers)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, openOffersKey(), payload, c.openOffersTTL).Err()
}

func (c *RedisCache) InvalidateOpenOffers(ctx context.Context) error {
	return c.client.Del(ctx, openOffersKey()).Err()
}

// AcquireAcceptLock is a cheap pre-filter for racing accepts. The conditional
// update in the offer store stays the source of truth.
func (c *RedisCache) AcquireAcceptLock(ctx context.Context, offerID string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, acceptLockKey(offerID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseAcceptLock(ctx context.Context, offerID string) error {
	return c.client.Del(ctx, acceptLockKey(offerID)).Err()
}

func openOffersKey() string {
	return "cache:offers:open"
}

func acceptLockKey(offerID string) string {
	return fmt.Sprintf("lock:offer:%s:accept", offerID)
}
