package credits

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/jackhunterking/beautycanvas/pkg/errors"
)

// RedisStore persists credit accounts in Redis, one JSON document per user.
// Updates run in an optimistic WATCH transaction and retry on write
// conflicts, which serializes concurrent updates for the same user across
// instances.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a store over an existing Redis client. Keys are
// namespaced under "credits:".
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "credits:"}
}

// maxTxRetries bounds optimistic-lock retries before giving up.
const maxTxRetries = 10

func (s *RedisStore) key(userID string) string { return s.prefix + userID }

// Update applies fn atomically to the user's account.
func (s *RedisStore) Update(ctx context.Context, userID string, fn func(*Account) error) (*Account, error) {
	key := s.key(userID)
	var result *Account

	txf := func(tx *redis.Tx) error {
		acct, err := readAccount(ctx, tx, key)
		if err != nil {
			return err
		}
		if err := fn(acct); err != nil {
			return err
		}

		data, err := json.Marshal(acct)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err != nil {
			return err
		}
		result = acct
		return nil
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue // conflicting write, retry
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "update credits for %s", userID)
	}
	return nil, apperrors.New(apperrors.ErrCodeInternal, "credit update for %s kept conflicting", userID)
}

// Get reads the user's account.
func (s *RedisStore) Get(ctx context.Context, userID string) (*Account, error) {
	acct, err := readAccount(ctx, s.client, s.key(userID))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "read credits for %s", userID)
	}
	return acct, nil
}

func readAccount(ctx context.Context, c redis.Cmdable, key string) (*Account, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return &Account{}, nil
	}
	if err != nil {
		return nil, err
	}

	var acct Account
	if err := json.Unmarshal(data, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

var _ Store = (*RedisStore)(nil)
