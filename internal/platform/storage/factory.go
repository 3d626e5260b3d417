package storage

import (
	"context"

	"reward-bot/internal/common/config"
	apperrors "reward-bot/internal/common/errors"
	redisp "reward-bot/internal/platform/redis"
)

// Open builds the configured driver and creates any missing documents.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Storage.Driver {
	case config.StorageRedis:
		rdb, rerr := redisp.Open(ctx, cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
		if rerr != nil {
			return nil, apperrors.Wrap(rerr, apperrors.ErrCodeConnectionFailed, "redis open")
		}
		s = NewRedisStore(rdb, cfg.Redis.Prefix)
	case config.StorageMemory:
		s = NewMemoryStore()
	default:
		s, err = NewFileStore(cfg.Storage.DataDir)
		if err != nil {
			return nil, err
		}
	}
	if err := s.Init(ctx, Defaults()); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}
