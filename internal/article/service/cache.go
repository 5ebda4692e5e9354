package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/thedividend/dividend/internal/article"
)

// RenderCache stores rendered article markup.
type RenderCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, html string, ttl time.Duration) error
}

// RenderKey identifies one revision of an article's markup. Any update moves
// updated_at and so orphans the old entry until its TTL runs out.
func RenderKey(a *article.Article) string {
	return fmt.Sprintf("article:html:%s:%d", a.ID, a.UpdatedAt.UnixNano())
}

// RedisCache is a RenderCache on a Redis client.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key, html string, ttl time.Duration) error {
	return r.client.Set(ctx, key, html, ttl).Err()
}
