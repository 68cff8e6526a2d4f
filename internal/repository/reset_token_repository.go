package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const resetTokenPrefix = "adaptive:reset:"

// ResetTokenRepository 密码重置令牌存放在 Redis，过期自动删除
type ResetTokenRepository struct {
	Client *redis.Client
}

func NewResetTokenRepository(client *redis.Client) *ResetTokenRepository {
	return &ResetTokenRepository{Client: client}
}

func (r *ResetTokenRepository) Save(ctx context.Context, token string, userID uint, ttl time.Duration) error {
	return r.Client.Set(ctx, resetTokenPrefix+token, userID, ttl).Err()
}

// Consume 读取并删除令牌，令牌只能使用一次
func (r *ResetTokenRepository) Consume(ctx context.Context, token string) (uint, bool, error) {
	val, err := r.Client.GetDel(ctx, resetTokenPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return uint(id), true, nil
}
