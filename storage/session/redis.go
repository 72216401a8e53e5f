package session

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/kazi/core"
)

const redisKeyPrefix = "kazi:revoked:"

type RedisRevoker struct {
	rdb *redis.Client
}

var _ Revoker = (*RedisRevoker)(nil)

func NewRedisClient(conf core.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
}

func NewRedisRevoker(rdb *redis.Client) *RedisRevoker {
	return &RedisRevoker{rdb: rdb}
}

func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired
	}
	if err := r.rdb.Set(ctx, redisKeyPrefix+tokenID, 1, ttl).Err(); err != nil {
		return errors.Wrap(err, "setting revoked token")
	}
	return nil
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, redisKeyPrefix+tokenID).Result()
	if err != nil {
		return false, errors.Wrap(err, "checking revoked token")
	}
	return n > 0, nil
}
