package minio

import (
	"context"
	"fmt"
	"log"
	"sync"

	"dataroom/backend/go/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	client *minio.Client
	mu     sync.Mutex
)

// GetClient 返回进程内共享的 MinIO 客户端，首次调用时创建并做一次连通性检查。
// 失败不会被缓存。
func GetClient(ctx context.Context, cfg *config.MinIOConfig) (*minio.Client, error) {
	mu.Lock()
	defer mu.Unlock()
	if client != nil {
		return client, nil
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("未配置 MinIO endpoint")
	}

	c, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("无法创建 MinIO 客户端: %w", err)
	}
	if _, err := c.ListBuckets(ctx); err != nil {
		return nil, fmt.Errorf("MinIO 初始化健康检查失败: %w", err)
	}

	log.Println("✅ 成功连接到 MinIO!")
	client = c
	return client, nil
}

// HealthCheck 检查 MinIO 连接的健康状况。
func HealthCheck(ctx context.Context) error {
	mu.Lock()
	c := client
	mu.Unlock()
	if c == nil {
		return fmt.Errorf("MinIO 客户端未初始化")
	}
	if _, err := c.ListBuckets(ctx); err != nil {
		return fmt.Errorf("MinIO 健康检查失败: %w", err)
	}
	return nil
}
