package milvus

import (
	"context"
	"fmt"
	"log"
	"sync"

	"dataroom/backend/go/internal/config"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// API 是向量存储层使用的 Milvus 操作子集。MilvusClient 实现它，测试中可替换为假实现。
type API interface {
	HasCollection(ctx context.Context, collName string) (bool, error)
	CreateCollection(ctx context.Context, schema *entity.Schema) error
	CreateIndex(ctx context.Context, collName, fieldName string, idx entity.Index) error
	LoadCollection(ctx context.Context, collName string) error
	Insert(ctx context.Context, collName string, columns ...entity.Column) error
	Search(ctx context.Context, req SearchRequest) ([]client.SearchResult, error)
	Delete(ctx context.Context, collName, expr string) error
}

// SearchRequest 描述一次单向量 ANN 搜索。
type SearchRequest struct {
	Collection   string
	Expr         string
	OutputFields []string
	Vector       []float32
	VectorField  string
	Metric       entity.MetricType
	TopK         int
	Param        entity.SearchParam
}

var (
	instance *MilvusClient
	mu       sync.Mutex
)

// MilvusClient 包含了 Milvus 客户端实例和相关配置。
type MilvusClient struct {
	Client client.Client
	Config *config.MilvusConfig
}

// GetClient 返回进程内共享的 Milvus 客户端。连接失败不会被缓存，下次调用会重试。
func GetClient(ctx context.Context, cfg *config.MilvusConfig) (*MilvusClient, error) {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance, nil
	}
	if cfg.Address == "" {
		return nil, config.ErrMissingBackendAddress
	}

	c, err := client.NewClient(ctx, client.Config{
		Address: cfg.Address,
		APIKey:  cfg.APIKey,
		DBName:  cfg.DBName,
	})
	if err != nil {
		return nil, fmt.Errorf("无法连接到 Milvus: %w", err)
	}
	log.Println("✅ 成功连接到 Milvus!")
	instance = &MilvusClient{Client: c, Config: cfg}
	return instance, nil
}

// Close 安全地关闭与 Milvus 的连接，并清除共享实例。
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		return nil
	}
	err := instance.Client.Close()
	instance = nil
	log.Println("ℹ️ 已安全关闭 Milvus 连接。")
	return err
}

// HealthCheck 检查 Milvus 连接的健康状况。
func (c *MilvusClient) HealthCheck(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("Milvus client is nil")
	}
	if _, err := c.Client.ListCollections(ctx); err != nil {
		return fmt.Errorf("Milvus health check failed: %w", err)
	}
	return nil
}

func (c *MilvusClient) HasCollection(ctx context.Context, collName string) (bool, error) {
	return c.Client.HasCollection(ctx, collName)
}

func (c *MilvusClient) CreateCollection(ctx context.Context, schema *entity.Schema) error {
	return c.Client.CreateCollection(ctx, schema, entity.DefaultShardNumber)
}

func (c *MilvusClient) CreateIndex(ctx context.Context, collName, fieldName string, idx entity.Index) error {
	return c.Client.CreateIndex(ctx, collName, fieldName, idx, false)
}

func (c *MilvusClient) LoadCollection(ctx context.Context, collName string) error {
	return c.Client.LoadCollection(ctx, collName, false)
}

func (c *MilvusClient) Insert(ctx context.Context, collName string, columns ...entity.Column) error {
	_, err := c.Client.Insert(ctx, collName, "" /* 默认分区 */, columns...)
	return err
}

// Search 以强一致性执行搜索，保证刚写入的分块立即可见。
func (c *MilvusClient) Search(ctx context.Context, req SearchRequest) ([]client.SearchResult, error) {
	return c.Client.Search(
		ctx,
		req.Collection,
		[]string{},
		req.Expr,
		req.OutputFields,
		[]entity.Vector{entity.FloatVector(req.Vector)},
		req.VectorField,
		req.Metric,
		req.TopK,
		req.Param,
		client.WithSearchQueryConsistencyLevel(entity.ClStrong),
	)
}

func (c *MilvusClient) Delete(ctx context.Context, collName, expr string) error {
	return c.Client.Delete(ctx, collName, "", expr)
}

// BuildIndex 根据配置构建向量索引。未设置的参数使用常见默认值。
func BuildIndex(cfg config.IndexConfig) (entity.Index, error) {
	metricType := entity.MetricType(cfg.MetricType)

	switch cfg.IndexType {
	case "IVF_FLAT":
		return entity.NewIndexIvfFlat(metricType, intParam(cfg.Params, "nlist", 128))
	case "HNSW":
		return entity.NewIndexHNSW(metricType, intParam(cfg.Params, "M", 8), intParam(cfg.Params, "efConstruction", 96))
	case "IVF_SQ8":
		return entity.NewIndexIvfSQ8(metricType, intParam(cfg.Params, "nlist", 128))
	case "IVF_PQ":
		return entity.NewIndexIvfPQ(metricType,
			intParam(cfg.Params, "nlist", 128),
			intParam(cfg.Params, "m", 16),
			intParam(cfg.Params, "nbits", 8))
	case "AUTOINDEX", "":
		return entity.NewIndexAUTOINDEX(metricType)
	default:
		return nil, fmt.Errorf("不支持的索引类型: %s", cfg.IndexType)
	}
}

// BuildSearchParam 返回与索引类型匹配的搜索参数。
func BuildSearchParam(cfg config.IndexConfig) (entity.SearchParam, error) {
	switch cfg.IndexType {
	case "IVF_FLAT":
		return entity.NewIndexIvfFlatSearchParam(intParam(cfg.Params, "nprobe", 10))
	case "HNSW":
		return entity.NewIndexHNSWSearchParam(intParam(cfg.Params, "ef", 64))
	case "IVF_SQ8":
		return entity.NewIndexIvfSQ8SearchParam(intParam(cfg.Params, "nprobe", 10))
	case "IVF_PQ":
		return entity.NewIndexIvfPQSearchParam(intParam(cfg.Params, "nprobe", 10))
	case "AUTOINDEX", "":
		return entity.NewIndexAUTOINDEXSearchParam(intParam(cfg.Params, "level", 1))
	default:
		return nil, fmt.Errorf("不支持的索引类型: %s", cfg.IndexType)
	}
}

// intParam 读取 YAML 解码得到的数值参数。
func intParam(params map[string]interface{}, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// compile-time check
var _ API = (*MilvusClient)(nil)
