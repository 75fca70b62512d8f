package redisx

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// PriceCache stores serialized pricing aggregates per category.
type PriceCache struct {
	RDB redis.Cmdable
	TTL time.Duration
}

// Get returns the cached bytes for categoryID; ok is false on a miss.
func (c *PriceCache) Get(ctx context.Context, categoryID int64) (b []byte, ok bool, err error) {
	b, err = c.RDB.Get(ctx, PricingKey(categoryID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *PriceCache) Set(ctx context.Context, categoryID int64, b []byte) error {
	ttl := c.TTL
	if ttl <= 0 {
		ttl = TTLPricing
	}
	return c.RDB.Set(ctx, PricingKey(categoryID), b, ttl).Err()
}

// Deduper marks event ids as seen so redelivered messages are skipped.
type Deduper struct {
	RDB     redis.Cmdable
	Service string
	TTL     time.Duration
}

// Claim records eventID and reports whether this caller is the first to see it.
func (d *Deduper) Claim(ctx context.Context, eventID string) (bool, error) {
	ttl := d.TTL
	if ttl <= 0 {
		ttl = TTLDedup
	}
	return d.RDB.SetNX(ctx, DedupKey(d.Service, eventID), "1", ttl).Result()
}

// Release forgets eventID so a failed attempt can be retried on redelivery.
func (d *Deduper) Release(ctx context.Context, eventID string) error {
	return d.RDB.Del(ctx, DedupKey(d.Service, eventID)).Err()
}
