package utils

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/inkwell/config"
)

var (
	redisClient *redis.Client
	redisOnce   sync.Once
)

// GetRedis returns a singleton Redis client, or nil when redis is not configured
// or unreachable at first use.
func GetRedis() *redis.Client {
	redisOnce.Do(func() {
		rc := config.Get().Redis
		if rc.Addr == "" {
			return
		}
		client := redis.NewClient(&redis.Options{
			Addr:         rc.Addr,
			Password:     rc.Password,
			DB:           rc.DB,
			DialTimeout:  3 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			Sugar.Warnf("redis %s unreachable, using in-memory token blacklist: %v", rc.Addr, err)
			_ = client.Close()
			return
		}
		redisClient = client
	})
	return redisClient
}
