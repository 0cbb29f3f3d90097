package pricecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/teetime-booking/internal/clock"
)

const redisPrefix = "price:"

// Redis shares the cache between instances.  Keys live for TTL plus
// grace so an entry that just expired can still be peeked and reported
// as stale rather than missing, like the in-process sweep window.
type Redis struct {
	rdb   *redis.Client
	clock clock.Clock
	ttl   time.Duration
	grace time.Duration
}

func NewRedis(rdb *redis.Client, clk clock.Clock, ttl, grace time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if grace < 0 {
		grace = 0
	}
	return &Redis{rdb: rdb, clock: clk, ttl: ttl, grace: grace}
}

func (r *Redis) key(courseID int64, teeTime time.Time) string {
	return redisPrefix + Key(courseID, teeTime)
}

func (r *Redis) Put(ctx context.Context, courseID int64, teeTime time.Time, priceCents int64, currency, source string) error {
	e := Entry{
		CourseID:   courseID,
		TeeTime:    teeTime.UTC(),
		PriceCents: priceCents,
		Currency:   currency,
		Source:     source,
		ExpiresAt:  r.clock.Now().Add(r.ttl),
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, r.key(courseID, teeTime), b, r.ttl+r.grace).Err(); err != nil {
		return fmt.Errorf("caching price: %w", err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, courseID int64, teeTime time.Time) (Entry, error) {
	e, err := r.Peek(ctx, courseID, teeTime)
	if err != nil {
		return Entry{}, err
	}
	if e.Expired(r.clock.Now()) {
		return Entry{}, ErrMiss
	}
	return e, nil
}

func (r *Redis) Peek(ctx context.Context, courseID int64, teeTime time.Time) (Entry, error) {
	b, err := r.rdb.Get(ctx, r.key(courseID, teeTime)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrMiss
	}
	if err != nil {
		return Entry{}, fmt.Errorf("reading cached price: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry{}, fmt.Errorf("decoding cached price: %w", err)
	}
	return e, nil
}

func (r *Redis) Delete(ctx context.Context, courseID int64, teeTime time.Time) error {
	return r.rdb.Del(ctx, r.key(courseID, teeTime)).Err()
}
