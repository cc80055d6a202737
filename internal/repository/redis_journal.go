package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultRedisJournalCap = 500

// RedisSummaryJournal keeps the most recent summaries in a Redis list, newest at the head.
type RedisSummaryJournal struct {
	client redis.Cmdable
	key    string
	cap    int64
}

// NewRedisSummaryJournal instantiates the journal. capacity <= 0 uses a default.
func NewRedisSummaryJournal(client redis.Cmdable, key string, capacity int) *RedisSummaryJournal {
	if capacity <= 0 {
		capacity = defaultRedisJournalCap
	}
	return &RedisSummaryJournal{client: client, key: key, cap: int64(capacity)}
}

func (j *RedisSummaryJournal) Append(ctx context.Context, s Summary) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	_, err = j.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, j.key, payload)
		pipe.LTrim(ctx, j.key, 0, j.cap-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("push summary: %w", err)
	}
	return nil
}

func (j *RedisSummaryJournal) List(ctx context.Context, limit int) ([]Summary, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	raw, err := j.client.LRange(ctx, j.key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("range summaries: %w", err)
	}
	out := make([]Summary, 0, len(raw))
	for _, item := range raw {
		var s Summary
		if err := json.Unmarshal([]byte(item), &s); err != nil {
			return nil, fmt.Errorf("decode summary: %w", err)
		}
		out = append(out, s)
	}
	return out, nil
}
