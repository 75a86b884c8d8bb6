package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"yolo-bot/internal/domain/port"
)

const keyPrefix = "telegram:update:"

// RedisDeduplicator отмечает id обновлений в Redis, чтобы несколько экземпляров бота
// не обработали повторную доставку webhook дважды.
type RedisDeduplicator struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisDeduplicator создаёт дедупликатор, ttl по умолчанию 10 минут
func NewRedisDeduplicator(client *redis.Client, ttl time.Duration) *RedisDeduplicator {
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return &RedisDeduplicator{redis: client, ttl: ttl}
}

// FirstSeen атомарно ставит метку и сообщает, была ли она поставлена впервые
func (d *RedisDeduplicator) FirstSeen(ctx context.Context, updateID int) (bool, error) {
	key := fmt.Sprintf("%s%d", keyPrefix, updateID)
	ok, err := d.redis.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", key, err)
	}
	return ok, nil
}

var _ port.UpdateDeduplicator = (*RedisDeduplicator)(nil)
