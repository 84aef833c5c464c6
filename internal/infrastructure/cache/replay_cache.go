package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"booking-ledger/internal/infrastructure/config"
)

// redisCmdable ReplayCacheが使うRedisコマンド
type redisCmdable interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisReplayCache 処理済みWebhookイベントをRedisに記憶する
// キャッシュは再配信を早く返すためだけのもので、正しさはDBの条件付き更新が保証する
type RedisReplayCache struct {
	client redisCmdable
	prefix string
	ttl    time.Duration
}

// NewRedisClient Redis設定からクライアントを作成
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRedisReplayCache 新しいRedisReplayCacheを作成
func NewRedisReplayCache(client redisCmdable, prefix string, ttl time.Duration) *RedisReplayCache {
	return &RedisReplayCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *RedisReplayCache) key(eventKey string) string {
	return c.prefix + eventKey
}

// Seen イベントが処理済みとして記憶されているか
func (c *RedisReplayCache) Seen(ctx context.Context, eventKey string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(eventKey)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check replay cache: %w", err)
	}
	return n > 0, nil
}

// Remember イベントを処理済みとして記憶する
func (c *RedisReplayCache) Remember(ctx context.Context, eventKey string) error {
	if err := c.client.Set(ctx, c.key(eventKey), time.Now().UTC().Format(time.RFC3339), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write replay cache: %w", err)
	}
	return nil
}
