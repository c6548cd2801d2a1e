package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Nikita-NA/News-sentiment-analysis/pkg/models"
)

// Redis persists session history in Redis: one list of serialized entries
// per query, plus an ordered list of all entries for enumeration. Opt-in;
// the memory store stays the default.
type Redis struct {
	client *redis.Client
	prefix string
}

var _ Store = (*Redis)(nil)

// NewRedis connects to the given Redis URL and verifies the connection.
func NewRedis(ctx context.Context, redisURL, prefix string) (*Redis, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	if prefix == "" {
		prefix = "newsent"
	}
	return &Redis{client: client, prefix: prefix}, nil
}

// NewRedisWithClient wraps an existing client; used by tests.
func NewRedisWithClient(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "newsent"
	}
	return &Redis{client: client, prefix: prefix}
}

// Close releases the underlying connection.
func (r *Redis) Close() error { return r.client.Close() }

func (r *Redis) allKey() string { return r.prefix + ":history" }

func (r *Redis) queryKey(query string) string {
	return r.prefix + ":history:" + query
}

// Add appends the batch to both the global and the per-query list.
func (r *Redis) Add(ctx context.Context, query string, batch *models.ResultBatch) error {
	entry := Entry{Query: query, Batch: batch, AddedAt: batch.CreatedAt}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, r.allKey(), data)
	pipe.RPush(ctx, r.queryKey(query), data)
	pipe.SAdd(ctx, r.prefix+":queries", query)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append history entry: %w", err)
	}
	return nil
}

// Entries returns all recorded entries in insertion order.
func (r *Redis) Entries(ctx context.Context) ([]Entry, error) {
	return r.readList(ctx, r.allKey())
}

// ByQuery returns the entries recorded for one query, oldest first.
func (r *Redis) ByQuery(ctx context.Context, query string) ([]Entry, error) {
	return r.readList(ctx, r.queryKey(query))
}

func (r *Redis) readList(ctx context.Context, key string) ([]Entry, error) {
	raw, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history %s: %w", key, err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("decode history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Len returns the number of recorded entries.
func (r *Redis) Len(ctx context.Context) (int, error) {
	n, err := r.client.LLen(ctx, r.allKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("history length: %w", err)
	}
	return int(n), nil
}

// Clear deletes the whole keyspace in one transaction.
func (r *Redis) Clear(ctx context.Context) error {
	queries, err := r.client.SMembers(ctx, r.prefix+":queries").Result()
	if err != nil {
		return fmt.Errorf("list history queries: %w", err)
	}

	keys := []string{r.allKey(), r.prefix + ":queries"}
	for _, q := range queries {
		keys = append(keys, r.queryKey(q))
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
