package utils

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient backs the rate limiters when REDIS_ADDR is set, so the window
// counters are shared across instances. Nil means process-local counting.
var RedisClient *redis.Client

func init() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return
	}

	RedisClient = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := RedisClient.Ping(ctx).Err(); err != nil {
		log.Printf("[redis] ping failed, falling back to local counters: %v", err)
		RedisClient = nil
	}
}
