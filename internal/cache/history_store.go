package cache

import (
	"context"
	"encoding/json"
	"fmt"

	redisv9 "github.com/redis/go-redis/v9"

	"nlquery-engine/internal/model"
)

const historyKey = "query:history"

// HistoryStore keeps the recent-query log as a capped redis list, newest
// first.
type HistoryStore struct {
	client *redisv9.Client
	limit  int64
}

func NewHistoryStore(client *redisv9.Client, limit int) *HistoryStore {
	if limit <= 0 {
		limit = 100
	}
	return &HistoryStore{client: client, limit: int64(limit)}
}

func (s *HistoryStore) Append(ctx context.Context, entry model.HistoryEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry failed: %w", err)
	}
	pipe := s.client.Pipeline()
	pipe.LPush(ctx, historyKey, raw)
	pipe.LTrim(ctx, historyKey, 0, s.limit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis push history failed: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (s *HistoryStore) Recent(ctx context.Context, n int) ([]model.HistoryEntry, error) {
	if n <= 0 {
		n = 20
	}
	raws, err := s.client.LRange(ctx, historyKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis read history failed: %w", err)
	}
	entries := make([]model.HistoryEntry, 0, len(raws))
	for _, raw := range raws {
		var e model.HistoryEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
