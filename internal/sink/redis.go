package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/bizcrawl/pkg/models"
)

// DefaultKeyPrefix namespaces record keys in Redis
const DefaultKeyPrefix = "bizcrawl:business:"

// RedisStore keeps one JSON value per record url
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps client. An empty prefix uses DefaultKeyPrefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// ConnectRedis dials addr and verifies the connection
func ConnectRedis(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return NewRedisStore(client, ""), nil
}

func (s *RedisStore) key(rec models.BusinessRecord) string {
	if rec.Domain == nil {
		return s.prefix + "anon:" + uuid.NewString()
	}
	return s.prefix + *rec.Domain
}

// UpsertIfAbsent stores rec with SETNX so an existing url is left untouched
func (s *RedisStore) UpsertIfAbsent(ctx context.Context, rec models.BusinessRecord) (models.SinkOutcome, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return models.OutcomeFailed, fmt.Errorf("encode record: %w", err)
	}

	created, err := s.client.SetNX(ctx, s.key(rec), payload, 0).Result()
	if err != nil {
		return models.OutcomeFailed, fmt.Errorf("redis setnx: %w", err)
	}
	if !created {
		return models.OutcomeDuplicate, nil
	}
	return models.OutcomeInserted, nil
}

// DeleteAll removes every key under the store prefix
func (s *RedisStore) DeleteAll(ctx context.Context) error {
	var deleted int64
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			n, err := s.client.Del(ctx, batch...).Result()
			if err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
			deleted += n
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(batch) > 0 {
		n, err := s.client.Del(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
		deleted += n
	}
	log.Info().Int64("keys", deleted).Msg("Deleted stored businesses")
	return nil
}

// Get returns the record stored for url
func (s *RedisStore) Get(ctx context.Context, url string) (models.BusinessRecord, error) {
	var rec models.BusinessRecord
	raw, err := s.client.Get(ctx, s.prefix+url).Bytes()
	if err != nil {
		return rec, err
	}
	err = json.Unmarshal(raw, &rec)
	return rec, err
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
