package enhance

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/jackhunterking/beautycanvas/pkg/errors"
)

// RedisJobStore persists jobs in Redis, one JSON document per job. Updates
// run in an optimistic WATCH transaction and retry on conflicting writes,
// serializing concurrent polls of the same job across instances.
type RedisJobStore struct {
	client *redis.Client
	prefix string
}

// NewRedisJobStore creates a store over an existing Redis client. Keys are
// namespaced under "job:".
func NewRedisJobStore(client *redis.Client) *RedisJobStore {
	return &RedisJobStore{client: client, prefix: "job:"}
}

const maxTxRetries = 10

func (s *RedisJobStore) key(id string) string { return s.prefix + id }

// Create stores a new job record.
func (s *RedisJobStore) Create(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "encode job %s", job.ID)
	}

	ok, err := s.client.SetNX(ctx, s.key(job.ID), data, 0).Result()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "store job %s", job.ID)
	}
	if !ok {
		return apperrors.New(apperrors.ErrCodeInternal, "job %s already exists", job.ID)
	}
	return nil
}

// Get returns the job with the given id.
func (s *RedisJobStore) Get(ctx context.Context, id string) (*Job, error) {
	return readJob(ctx, s.client, s.key(id), id)
}

// Update applies fn atomically to the job.
func (s *RedisJobStore) Update(ctx context.Context, id string, fn func(*Job) error) (*Job, error) {
	key := s.key(id)
	var result *Job

	txf := func(tx *redis.Tx) error {
		job, err := readJob(ctx, tx, key, id)
		if err != nil {
			return err
		}
		if err := fn(job); err != nil {
			return err
		}

		data, err := json.Marshal(job)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInternal, err, "encode job %s", id)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err != nil {
			return err
		}
		result = job
		return nil
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, apperrors.New(apperrors.ErrCodeInternal, "job update for %s kept conflicting", id)
}

func readJob(ctx context.Context, c redis.Cmdable, key, id string) (*Job, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.New(apperrors.ErrCodeJobNotFound, "job %s not found", id)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "read job %s", id)
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "decode job %s", id)
	}
	return &job, nil
}

var _ JobStore = (*RedisJobStore)(nil)
