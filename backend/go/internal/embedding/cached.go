package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dataroom/backend/go/pkg/logger"
	"dataroom/backend/go/pkg/util"

	"github.com/go-redis/redis/v8"
)

// VectorCache 存储查询文本对应的向量。
type VectorCache interface {
	Get(ctx context.Context, key string) ([]float32, bool)
	Set(ctx context.Context, key string, vec []float32)
}

// CachedModel 为单条查询的 Embed 调用加一层缓存。批量调用只出现在建索引时，
// 文本很少重复，因此直接透传。
type CachedModel struct {
	inner    Embedding
	cache    VectorCache
	modelKey string
	log      *logger.Logger
}

// NewCachedModel 用 cache 包装 inner。modelKey 区分不同的向量空间，
// 避免切换模型后命中旧向量。
func NewCachedModel(inner Embedding, cache VectorCache, modelKey string, log *logger.Logger) *CachedModel {
	if log == nil {
		log = logger.Nop()
	}
	return &CachedModel{inner: inner, cache: cache, modelKey: modelKey, log: log}
}

// Embed 先查缓存，未命中时调用底层模型并回填。
func (m *CachedModel) Embed(ctx context.Context, text string) ([]float32, error) {
	key := m.key(text)
	if vec, ok := m.cache.Get(ctx, key); ok {
		return vec, nil
	}
	vec, err := m.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	m.cache.Set(ctx, key, vec)
	return vec, nil
}

// EmbedBatch 直接调用底层模型。
func (m *CachedModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return m.inner.EmbedBatch(ctx, texts)
}

func (m *CachedModel) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emb:" + m.modelKey + ":" + hex.EncodeToString(sum[:])
}

// LRUVectorCache 是基于进程内 LRU 的 VectorCache。
type LRUVectorCache struct {
	lru *util.LRUCache[string, []float32]
}

// NewLRUVectorCache 创建一个容量为 capacity、过期时间为 ttl 的进程内缓存。
func NewLRUVectorCache(capacity int, ttl time.Duration) (*LRUVectorCache, error) {
	lru, err := util.NewWithConfig(util.CacheConfig[string, []float32]{
		Capacity: capacity,
		TTL:      ttl,
	})
	if err != nil {
		return nil, err
	}
	return &LRUVectorCache{lru: lru}, nil
}

func (c *LRUVectorCache) Get(_ context.Context, key string) ([]float32, bool) {
	return c.lru.Get(key)
}

func (c *LRUVectorCache) Set(_ context.Context, key string, vec []float32) {
	c.lru.Put(key, vec, 1)
}

// Len 返回缓存条目数。
func (c *LRUVectorCache) Len() int {
	return c.lru.Len()
}

// RedisVectorCache 是基于 Redis 的 VectorCache，适合多实例共享。
// 缓存读写失败只记录日志，不影响查询。
type RedisVectorCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

// NewRedisVectorCache 使用已连接的 Redis 客户端创建缓存。
func NewRedisVectorCache(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *RedisVectorCache {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisVectorCache{rdb: rdb, ttl: ttl, log: log}
}

func (c *RedisVectorCache) Get(ctx context.Context, key string) ([]float32, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn(fmt.Sprintf("读取向量缓存失败: %v", err))
		}
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		c.log.Warn(fmt.Sprintf("向量缓存数据损坏: %v", err))
		return nil, false
	}
	return vec, true
}

func (c *RedisVectorCache) Set(ctx context.Context, key string, vec []float32) {
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn(fmt.Sprintf("写入向量缓存失败: %v", err))
	}
}
