package storage

import (
	"context"
	"fmt"

	apperrors "reward-bot/internal/common/errors"
	redisp "reward-bot/internal/platform/redis"
)

// RedisStore keeps each document under the key "<prefix>:<name>".
type RedisStore struct {
	rdb    *redisp.Client
	prefix string
}

func NewRedisStore(rdb *redisp.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "rewardbot"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(name string) string {
	return fmt.Sprintf("%s:%s", s.prefix, name)
}

func (s *RedisStore) Load(ctx context.Context, name string) ([]byte, error) {
	raw, err := s.rdb.Get(ctx, s.key(name)).Bytes()
	if err != nil {
		if redisp.IsNil(err) {
			return nil, apperrors.NewNotFoundError("document", name)
		}
		return nil, apperrors.NewStorageError("get "+name, err)
	}
	return raw, nil
}

func (s *RedisStore) Save(ctx context.Context, name string, data []byte) error {
	if err := s.rdb.Set(ctx, s.key(name), data, 0).Err(); err != nil {
		return apperrors.NewStorageError("set "+name, err)
	}
	return nil
}

// Init uses SETNX so documents written by an earlier run are kept.
func (s *RedisStore) Init(ctx context.Context, defaults map[string][]byte) error {
	for name, data := range defaults {
		if err := s.rdb.SetNX(ctx, s.key(name), data, 0).Err(); err != nil {
			return apperrors.NewStorageError("init "+name, err)
		}
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeConnectionFailed, "redis ping failed")
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
