package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// redisEvaler is the slice of the Redis client the counter needs.
type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)
}

type clientEvaler struct {
	client redis.Cmdable
}

func (e clientEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	return e.client.Eval(ctx, script, keys, args...).Result()
}

// waveSequenceScript raises the counter to the floor (the number of stored
// registrations) when it lags behind, then increments it. Raising covers a
// fresh key as well as rows inserted while the counter strategy was off.
const waveSequenceScript = `
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local floor = tonumber(ARGV[1])
if current < floor then
  redis.call('SET', KEYS[1], floor)
end
return redis.call('INCR', KEYS[1])
`

// WaveCounterRepository hands out per-wave registration sequences from Redis.
type WaveCounterRepository struct {
	client redisEvaler
	prefix string
}

// NewWaveCounterRepository constructs a counter over a go-redis client.
func NewWaveCounterRepository(client redis.Cmdable, prefix string) *WaveCounterRepository {
	return newWaveCounterRepository(clientEvaler{client: client}, prefix)
}

func newWaveCounterRepository(client redisEvaler, prefix string) *WaveCounterRepository {
	if prefix == "" {
		prefix = "pmb:wave_seq:"
	}
	return &WaveCounterRepository{client: client, prefix: prefix}
}

// Key returns the Redis key of a wave's counter.
func (r *WaveCounterRepository) Key(waveID string) string {
	return r.prefix + waveID
}

// Next atomically reserves the next sequence of a wave, never below floor+1.
func (r *WaveCounterRepository) Next(ctx context.Context, waveID string, floor int64) (int64, error) {
	res, err := r.client.Eval(ctx, waveSequenceScript, []string{r.Key(waveID)}, floor)
	if err != nil {
		return 0, fmt.Errorf("redis eval wave counter %s: %w", waveID, err)
	}
	n, ok := res.(int64)
	if !ok {
		return 0, fmt.Errorf("redis eval wave counter %s: unexpected result %T", waveID, res)
	}
	return n, nil
}
