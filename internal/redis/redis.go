package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Connect opens the Redis client used for change events, broadcast
// hints and operator sessions.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}
