// Package redis caches blocked dates per item.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"shareit/internal/app/policies"
	"shareit/internal/domain/calendar"
	"shareit/internal/domain/items"
)

const (
	defaultTTL   = 10 * time.Minute
	genTTLFactor = 6
)

type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects and pings.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", opts.Addr, err)
	}
	return rdb, nil
}

// BlockedDatesCache stores each item's blocked days as a JSON list of YYYY-MM-DD strings
// under "<prefix>blocked:<item>:<gen>". Invalidate increments the item's generation counter,
// which orphans entries written for older generations. Entries expire after TTL even if an
// invalidation is lost.
type BlockedDatesCache struct {
	Client redis.Cmdable
	Prefix string
	TTL    time.Duration
}

func (c BlockedDatesCache) Get(ctx context.Context, itemID items.ItemID) ([]calendar.Day, uint64, bool, error) {
	gen, err := c.generation(ctx, itemID)
	if err != nil {
		return nil, 0, false, err
	}
	raw, err := c.Client.Get(ctx, c.entryKey(itemID, gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, 0, false, err
	}
	days, err := decodeDays(raw)
	if err != nil {
		// A corrupt entry is a miss; the next Set overwrites it.
		return nil, gen, false, nil
	}
	return days, gen, true, nil
}

func (c BlockedDatesCache) Set(ctx context.Context, itemID items.ItemID, gen uint64, days []calendar.Day) error {
	raw, err := encodeDays(days)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, c.entryKey(itemID, gen), raw, c.ttl()).Err()
}

func (c BlockedDatesCache) Invalidate(ctx context.Context, itemID items.ItemID) error {
	key := c.genKey(itemID)
	if err := c.Client.Incr(ctx, key).Err(); err != nil {
		return err
	}
	// The counter outlives every entry it guards.
	return c.Client.Expire(ctx, key, genTTLFactor*c.ttl()).Err()
}

func (c BlockedDatesCache) generation(ctx context.Context, itemID items.ItemID) (uint64, error) {
	gen, err := c.Client.Get(ctx, c.genKey(itemID)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c BlockedDatesCache) key(itemID items.ItemID) string {
	prefix := c.Prefix
	if prefix == "" {
		prefix = "shareit:"
	}
	return prefix + "blocked:" + string(itemID)
}

func (c BlockedDatesCache) genKey(itemID items.ItemID) string {
	return c.key(itemID) + ":gen"
}

func (c BlockedDatesCache) entryKey(itemID items.ItemID, gen uint64) string {
	return c.key(itemID) + ":" + strconv.FormatUint(gen, 10)
}

func (c BlockedDatesCache) ttl() time.Duration {
	if c.TTL <= 0 {
		return defaultTTL
	}
	return c.TTL
}

func encodeDays(days []calendar.Day) ([]byte, error) {
	return json.Marshal(calendar.Strings(days))
}

func decodeDays(raw []byte) ([]calendar.Day, error) {
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, err
	}
	return calendar.ParseDays(values)
}

var _ policies.BlockedDatesCache = BlockedDatesCache{}
