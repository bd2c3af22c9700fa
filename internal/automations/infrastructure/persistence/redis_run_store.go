package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/cadence/internal/automations/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultRunsKey is the redis list holding encoded runs, newest at the head.
const DefaultRunsKey = "cadence:automation:runs"

// RedisRunStore keeps a capped list of runs in redis.
type RedisRunStore struct {
	client   redis.Cmdable
	key      string
	capacity int
}

// NewRedisRunStore creates a store on client. Empty key and non-positive
// capacity select the defaults.
func NewRedisRunStore(client redis.Cmdable, key string, capacity int) *RedisRunStore {
	if key == "" {
		key = DefaultRunsKey
	}
	if capacity <= 0 {
		capacity = DefaultRunCapacity
	}
	return &RedisRunStore{client: client, key: key, capacity: capacity}
}

// Record pushes the run and trims the list to capacity in one transaction.
func (s *RedisRunStore) Record(ctx context.Context, run domain.Run) error {
	payload, err := encodeRun(run)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, s.key, payload)
		pipe.LTrim(ctx, s.key, 0, int64(s.capacity-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *RedisRunStore) Recent(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 || limit > s.capacity {
		limit = s.capacity
	}

	values, err := s.client.LRange(ctx, s.key, 0, int64(limit-1)).Result()
	if err == redis.Nil {
		return []domain.Run{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	runs := make([]domain.Run, 0, len(values))
	for _, v := range values {
		run, err := decodeRun(v)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func encodeRun(run domain.Run) (string, error) {
	if err := run.Validate(); err != nil {
		return "", err
	}
	data, err := json.Marshal(run)
	if err != nil {
		return "", fmt.Errorf("encode run: %w", err)
	}
	return string(data), nil
}

func decodeRun(value string) (domain.Run, error) {
	var run domain.Run
	if err := json.Unmarshal([]byte(value), &run); err != nil {
		return domain.Run{}, fmt.Errorf("decode run: %w", err)
	}
	return run, nil
}
