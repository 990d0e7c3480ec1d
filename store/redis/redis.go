package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallnest/researchdeck/research"
	"github.com/smallnest/researchdeck/store"
)

// RedisProjectStore implements store.ProjectStore using Redis.
type RedisProjectStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ store.ProjectStore = (*RedisProjectStore)(nil)

// RedisOptions configuration for Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "researchdeck:"
	TTL      time.Duration // Expiration for projects, default 0 (no expiration)
}

// NewRedisProjectStore creates a new Redis project store
func NewRedisProjectStore(opts RedisOptions) *RedisProjectStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisProjectStoreWithClient(client, opts.Prefix, opts.TTL)
}

// NewRedisProjectStoreWithClient wraps an existing client.
func NewRedisProjectStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisProjectStore {
	if prefix == "" {
		prefix = "researchdeck:"
	}
	return &RedisProjectStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisProjectStore) projectKey(id string) string {
	return fmt.Sprintf("%sproject:%s", s.prefix, id)
}

func (s *RedisProjectStore) indexKey() string {
	return s.prefix + "projects"
}

// Close closes the client.
func (s *RedisProjectStore) Close() error {
	return s.client.Close()
}

// Save stores a project and indexes it by update time.
func (s *RedisProjectStore) Save(ctx context.Context, p *research.Project) error {
	data, err := store.Marshal(p)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.projectKey(p.ID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(p.UpdatedAt.UnixMilli()), Member: p.ID})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save project to redis: %w", err)
	}
	return nil
}

// Load retrieves a project by id.
func (s *RedisProjectStore) Load(ctx context.Context, id string) (*research.Project, error) {
	data, err := s.client.Get(ctx, s.projectKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.NotFound(id)
		}
		return nil, fmt.Errorf("failed to load project from redis: %w", err)
	}
	return store.Unmarshal(data)
}

// List returns summaries of all indexed projects. Index entries whose
// document expired are pruned.
func (s *RedisProjectStore) List(ctx context.Context) ([]store.Summary, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	out := []store.Summary{}
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.projectKey(id)
	}
	results, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}

	var stale []any
	for i, result := range results {
		str, ok := result.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		p, err := store.Unmarshal([]byte(str))
		if err != nil {
			return nil, err
		}
		out = append(out, store.Summarize(p))
	}
	if len(stale) > 0 {
		s.client.ZRem(ctx, s.indexKey(), stale...)
	}
	store.SortSummaries(out)
	return out, nil
}

// Delete removes a project and its index entry.
func (s *RedisProjectStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.projectKey(id))
	pipe.ZRem(ctx, s.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}
