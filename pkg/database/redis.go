package database

import (
	"context"
	"fmt"
	"time"

	"boardroom-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// InitRedis returns nil, nil when no address is configured.
func InitRedis(config utils.RedisConfig) (*redis.Client, error) {
	if config.Address == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Address,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", config.Address, err)
	}

	return client, nil
}
