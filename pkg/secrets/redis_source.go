package secrets

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisSource reads the secret from a plain Redis string key, which lets
// operators rotate it without restarting the service.
type RedisSource struct {
	client *redis.Client
	key    string
}

func NewRedisSource(client *redis.Client, key string) *RedisSource {
	return &RedisSource{client: client, key: key}
}

func (s *RedisSource) Fetch(ctx context.Context) (string, error) {
	value, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		return "", fmt.Errorf("fetch secret %s: %w", s.key, err)
	}
	return value, nil
}
