package redis

import (
	"context"
	"fmt"
	"log"
	"sync"

	"dataroom/backend/go/internal/config"

	"github.com/go-redis/redis/v8"
)

var (
	client *redis.Client
	mu     sync.Mutex
)

// GetClient 返回进程内共享的 Redis 客户端，首次调用时连接并 Ping。失败不会被缓存。
func GetClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	mu.Lock()
	defer mu.Unlock()
	if client != nil {
		return client, nil
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("未配置 Redis 地址")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("无法连接到 Redis: %w", err)
	}

	log.Println("✅ 成功连接到 Redis!")
	client = rdb
	return client, nil
}

// Close 安全地关闭共享的 Redis 连接。
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if client == nil {
		return nil
	}
	err := client.Close()
	client = nil
	return err
}

// HealthCheck 检查 Redis 连接的健康状况。
func HealthCheck(ctx context.Context) error {
	mu.Lock()
	c := client
	mu.Unlock()
	if c == nil {
		return fmt.Errorf("Redis 客户端未初始化")
	}
	return c.Ping(ctx).Err()
}
