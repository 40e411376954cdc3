package redis

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shareit/internal/domain/calendar"
)

func TestDaysCodec(t *testing.T) {
	days := []calendar.Day{calendar.MustParseDay("2026-03-11"), calendar.MustParseDay("2026-03-10")}
	raw, err := encodeDays(days)
	require.NoError(t, err)
	assert.JSONEq(t, `["2026-03-11","2026-03-10"]`, string(raw))

	got, err := decodeDays(raw)
	require.NoError(t, err)
	assert.Equal(t, []calendar.Day{days[1], days[0]}, got)

	_, err = decodeDays([]byte(`["tomorrow"]`))
	assert.Error(t, err)
}

func TestKeyAndTTL(t *testing.T) {
	c := BlockedDatesCache{}
	assert.Equal(t, "shareit:blocked:drill:gen", c.genKey("drill"))
	assert.Equal(t, "shareit:blocked:drill:3", c.entryKey("drill", 3))
	assert.Equal(t, defaultTTL, c.ttl())

	c = BlockedDatesCache{Prefix: "test:", TTL: time.Minute}
	assert.Equal(t, "test:blocked:drill:0", c.entryKey("drill", 0))
	assert.Equal(t, time.Minute, c.ttl())
}

// kv implements the handful of commands the cache issues.
type kv struct {
	redis.Cmdable
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newKV() *kv {
	return &kv{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *kv) Get(_ context.Context, key string) *redis.StringCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (s *kv) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		s.data[key] = string(v)
	case string:
		s.data[key] = v
	}
	s.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (s *kv) Incr(_ context.Context, key string) *redis.IntCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, _ := strconv.ParseInt(s.data[key], 10, 64)
	n++
	s.data[key] = strconv.FormatInt(n, 10)
	return redis.NewIntResult(n, nil)
}

func (s *kv) Expire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func TestReadThroughHitAfterSet(t *testing.T) {
	ctx := context.Background()
	store := newKV()
	c := BlockedDatesCache{Client: store, TTL: time.Minute}
	days := []calendar.Day{calendar.MustParseDay("2026-03-10")}

	_, gen, ok, err := c.Get(ctx, "drill")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, gen)

	require.NoError(t, c.Set(ctx, "drill", gen, days))
	got, _, ok, err := c.Get(ctx, "drill")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, days, got)
	assert.Equal(t, time.Minute, store.ttls[c.entryKey("drill", 0)])

	require.NoError(t, c.Invalidate(ctx, "drill"))
	_, gen, ok, err = c.Get(ctx, "drill")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, uint64(1), gen)
	assert.Equal(t, genTTLFactor*time.Minute, store.ttls[c.genKey("drill")])
}

func TestStaleWriteAfterInvalidateIsNotServed(t *testing.T) {
	ctx := context.Background()
	c := BlockedDatesCache{Client: newKV()}
	stale := []calendar.Day{calendar.MustParseDay("2026-03-10")}
	fresh := []calendar.Day{calendar.MustParseDay("2026-03-10"), calendar.MustParseDay("2026-03-11")}

	// A reader misses and loads the store, then a booking commits and invalidates
	// before the reader writes back what it loaded.
	_, readerGen, ok, err := c.Get(ctx, "drill")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, c.Invalidate(ctx, "drill"))
	require.NoError(t, c.Set(ctx, "drill", readerGen, stale))

	_, gen, ok, err := c.Get(ctx, "drill")
	require.NoError(t, err)
	assert.False(t, ok, "the late write must not be visible")

	require.NoError(t, c.Set(ctx, "drill", gen, fresh))
	got, _, ok, err := c.Get(ctx, "drill")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, fresh, got)
}
