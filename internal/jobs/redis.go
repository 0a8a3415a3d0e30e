package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wintersoldje/econ-shorts/backend/internal/models"
)

const (
	keyPrefix     = "shorts:job:"
	maxTxAttempts = 5
)

// RedisStore shares jobs between the api and worker processes. Each job is a
// JSON value; updates run in an optimistic WATCH transaction.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// ConnectRedis parses url (redis:// form or host:port) and pings the server.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// NewRedisStore wraps rdb. Keys expire ttl after their last write; ttl <= 0
// keeps them forever.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{
		rdb: rdb,
		ttl: ttl,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *RedisStore) key(id string) string {
	return keyPrefix + id
}

func (s *RedisStore) Create(ctx context.Context, job models.Job) error {
	job = prepare(job, s.now())
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	ok, err := s.rdb.SetNX(ctx, s.key(job.ID), payload, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrExists, job.ID)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (models.Job, error) {
	raw, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return models.Job{}, fmt.Errorf("get job: %w", err)
	}
	return decode(raw)
}

func (s *RedisStore) UpdateStatus(ctx context.Context, id string, u Update) (models.Job, error) {
	key := s.key(id)
	var updated models.Job

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		job, err := decode(raw)
		if err != nil {
			return err
		}
		next, err := apply(job, u, s.now())
		if err != nil {
			return err
		}
		payload, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("marshal job: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		if err == nil {
			updated = next
		}
		return err
	}

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return models.Job{}, err
		}
		return updated, nil
	}
	return models.Job{}, fmt.Errorf("update job %s: too much contention", id)
}

func decode(raw []byte) (models.Job, error) {
	var job models.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return models.Job{}, fmt.Errorf("decode job: %w", err)
	}
	return job, nil
}
