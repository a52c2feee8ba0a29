package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingBackendAddress 在 Milvus 向量库未配置地址时返回。
	ErrMissingBackendAddress = errors.New("vector store address is not configured")
	// ErrMissingAPIKey 在远程 embedding 提供商缺少 API 密钥时返回。
	ErrMissingAPIKey = errors.New("embedding provider API key is not configured")
)

const (
	VectorStoreMilvus = "milvus"
	VectorStoreMemory = "memory"
)

// ChunkingConfig 定义了分块器的字符数配置。
type ChunkingConfig struct {
	MaxChunkSize int `yaml:"maxChunkSize"` // 单个分块的最大字符数
	OverlapSize  int `yaml:"overlapSize"`  // 重叠大小（取 overlapSize/10 个单词）
	MinChunkSize int `yaml:"minChunkSize"` // 允许输出的最小分块字符数
}

// ChunkingProfiles 包含两套分块配置：default 用于上传的整份文件，indexing 用于 /index 的答案文本。
type ChunkingProfiles struct {
	Default  ChunkingConfig `yaml:"default"`
	Indexing ChunkingConfig `yaml:"indexing"`
}

// RagConfig 定义了 RAG 核心的配置。
type RagConfig struct {
	CollectionSuffix string           `yaml:"collectionSuffix"` // 集合名称后缀，集合名为 suffix_projectId
	DefaultLimit     int              `yaml:"defaultLimit"`     // 搜索默认返回条数
	Chunking         ChunkingProfiles `yaml:"chunking"`
}

// IndexConfig 定义了 Milvus 集合中向量索引的配置。
type IndexConfig struct {
	IndexType  string                 `yaml:"indexType"`  // 索引类型 (例如: "IVF_FLAT", "HNSW")
	MetricType string                 `yaml:"metricType"` // 相似度度量类型 (例如: "L2", "COSINE")
	Params     map[string]interface{} `yaml:"params"`     // 索引参数 (例如: {"nlist": 128})
}

// MilvusConfig 定义了 Milvus 数据库的连接配置。
type MilvusConfig struct {
	Address       string      `yaml:"address"`       // Milvus 服务地址
	APIKey        string      `yaml:"apiKey"`        // 托管 Milvus (Zilliz) 的 API 密钥
	DBName        string      `yaml:"dbName"`        // 数据库名称
	TextMaxLength int         `yaml:"textMaxLength"` // VarChar 字段的最大长度
	Index         IndexConfig `yaml:"index"`
}

// CircuitBreakerConfig 定义了向量库调用熔断器的配置。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"` // 连续失败多少次后熔断
	SuccessThreshold uint32 `yaml:"successThreshold"` // 半开状态下连续成功多少次后恢复
	Timeout          string `yaml:"timeout"`          // 熔断持续时间，例如: "30s"
}

// VectorStoreConfig 选择并配置向量库实现。
type VectorStoreConfig struct {
	Type           string               `yaml:"type"` // "milvus" 或 "memory"
	Milvus         MilvusConfig         `yaml:"milvus"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// EmbeddingCacheConfig 定义了查询向量缓存的配置。
type EmbeddingCacheConfig struct {
	Capacity int    `yaml:"capacity"` // 进程内 LRU 的容量，0 表示关闭
	TTL      string `yaml:"ttl"`      // 例如: "10m"
	Redis    bool   `yaml:"redis"`    // 为 true 时使用 databases.redis 作为缓存
}

// EmbeddingConfig 定义了向量化（embedding）提供商的配置。
type EmbeddingConfig struct {
	Provider  string               `yaml:"provider"` // "openai", "gemini", "ollama", "huggingface", "hashing"
	Model     string               `yaml:"model"`
	APIKey    string               `yaml:"apiKey"`
	BaseURL   string               `yaml:"baseURL"`
	Dimension int                  `yaml:"dimension"` // 向量维度，创建集合时使用
	Cache     EmbeddingCacheConfig `yaml:"cache"`
}

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MySQLConfig 定义了 MySQL 数据库的连接配置。
type MySQLConfig struct {
	Address         string `yaml:"address"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	MaxOpenConns    int    `yaml:"maxOpenConns"`
	MaxIdleConns    int    `yaml:"maxIdleConns"`
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // 连接最大生命周期 (秒)
}

// MinIOConfig 定义了 MinIO 对象存储的连接配置。
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Secure    bool   `yaml:"secure"`
}

// KafkaConfig 定义了 Kafka 消息队列的连接配置。
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"` // 索引事件主题
}

// EtcdConfig 定义了 Etcd 服务发现的连接配置。
type EtcdConfig struct {
	Endpoints []string `yaml:"endpoints"`
	TTL       int64    `yaml:"ttl"` // 租约有效期 (秒)
}

// DatabaseConfigs 包含所有可选外部依赖的配置。未配置的依赖会被跳过。
type DatabaseConfigs struct {
	Redis RedisConfig `yaml:"redis"`
	MySQL MySQLConfig `yaml:"mysql"`
	MinIO MinIOConfig `yaml:"minio"`
	Kafka KafkaConfig `yaml:"kafka"`
	Etcd  EtcdConfig  `yaml:"etcd"`
}

// TokenBucketConfig 定义了令牌桶算法的配置。
type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"` // 每秒速率
	Capacity int     `yaml:"capacity"`
}

// RateLimiterConfig 定义了限流器的配置。
type RateLimiterConfig struct {
	Enabled     bool              `yaml:"enabled"`
	TokenBucket TokenBucketConfig `yaml:"tokenBucket"`
}

// ServerConfig 定义了 HTTP 服务的配置。
type ServerConfig struct {
	Address     string            `yaml:"address"`
	RateLimiter RateLimiterConfig `yaml:"rateLimiter"`
}

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// AppConfig 是整个 YAML 文件的根结构。
type AppConfig struct {
	App         AppInfo           `yaml:"app"`
	Logger      LoggerConfig      `yaml:"logger"`
	Server      ServerConfig      `yaml:"server"`
	Rag         RagConfig         `yaml:"rag"`
	VectorStore VectorStoreConfig `yaml:"vectorStore"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Databases   DatabaseConfigs   `yaml:"databases"`
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件，不做环境变量覆盖和校验。
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}
	return &cfg, nil
}

// Load 加载 .env（如果存在）和 YAML 配置，叠加环境变量，填充默认值并校验。
// path 为空或文件不存在时，仅使用默认值和环境变量。
func Load(path string) (*AppConfig, error) {
	// .env 不存在是正常情况。
	_ = godotenv.Load()

	cfg := &AppConfig{}
	if path != "" {
		loaded, err := LoadConfig(path)
		switch {
		case err == nil:
			cfg = loaded
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}

	cfg.ApplyEnv()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv 使用环境变量覆盖配置中的凭证和地址。
func (c *AppConfig) ApplyEnv() {
	setString(&c.VectorStore.Milvus.Address, "MILVUS_ADDRESS")
	setString(&c.VectorStore.Milvus.APIKey, "MILVUS_API_KEY")
	setString(&c.Embedding.Provider, "EMBEDDING_PROVIDER")
	setString(&c.Embedding.Model, "EMBEDDING_MODEL")
	setString(&c.Embedding.APIKey, "OPENAI_API_KEY")
	setString(&c.Embedding.APIKey, "EMBEDDING_API_KEY")
	setString(&c.Databases.Redis.Address, "REDIS_ADDRESS")
	setString(&c.Databases.MinIO.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Databases.MinIO.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Databases.MinIO.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Databases.MySQL.Address, "MYSQL_ADDRESS")
	setString(&c.Server.Address, "HTTP_ADDRESS")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		var brokers []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		c.Databases.Kafka.Brokers = brokers
	}
	if c.VectorStore.Type == "" && c.VectorStore.Milvus.Address != "" {
		c.VectorStore.Type = VectorStoreMilvus
	}
}

// ApplyDefaults 填充未配置项的默认值。
func (c *AppConfig) ApplyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "rag-service"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Rag.CollectionSuffix == "" {
		c.Rag.CollectionSuffix = "Answers"
	}
	if c.Rag.DefaultLimit <= 0 {
		c.Rag.DefaultLimit = 5
	}
	if c.Rag.Chunking.Default == (ChunkingConfig{}) {
		c.Rag.Chunking.Default = ChunkingConfig{MaxChunkSize: 500, OverlapSize: 50, MinChunkSize: 100}
	}
	if c.Rag.Chunking.Indexing == (ChunkingConfig{}) {
		c.Rag.Chunking.Indexing = ChunkingConfig{MaxChunkSize: 300, OverlapSize: 20, MinChunkSize: 50}
	}
	if c.VectorStore.Type == "" {
		c.VectorStore.Type = VectorStoreMemory
	}
	if c.VectorStore.Milvus.TextMaxLength <= 0 {
		c.VectorStore.Milvus.TextMaxLength = 65535
	}
	if c.VectorStore.Milvus.Index.IndexType == "" {
		c.VectorStore.Milvus.Index.IndexType = "AUTOINDEX"
	}
	if c.VectorStore.Milvus.Index.MetricType == "" {
		c.VectorStore.Milvus.Index.MetricType = "COSINE"
	}
	if c.VectorStore.CircuitBreaker.FailureThreshold == 0 {
		c.VectorStore.CircuitBreaker.FailureThreshold = 5
	}
	if c.VectorStore.CircuitBreaker.SuccessThreshold == 0 {
		c.VectorStore.CircuitBreaker.SuccessThreshold = 1
	}
	if c.VectorStore.CircuitBreaker.Timeout == "" {
		c.VectorStore.CircuitBreaker.Timeout = "30s"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "hashing"
	}
	if c.Embedding.Dimension <= 0 {
		c.Embedding.Dimension = defaultDimension(c.Embedding.Provider)
	}
	if c.Databases.Kafka.Topic == "" {
		c.Databases.Kafka.Topic = "dataroom.index-events"
	}
	if c.Databases.MinIO.Bucket == "" {
		c.Databases.MinIO.Bucket = "dataroom-documents"
	}
	if c.Databases.Etcd.TTL <= 0 {
		c.Databases.Etcd.TTL = 10
	}
}

// Validate 对必须的配置项进行快速失败校验。
func (c *AppConfig) Validate() error {
	switch c.VectorStore.Type {
	case VectorStoreMilvus:
		if c.VectorStore.Milvus.Address == "" {
			return ErrMissingBackendAddress
		}
	case VectorStoreMemory:
	default:
		return fmt.Errorf("不支持的向量库类型: %s", c.VectorStore.Type)
	}
	switch c.Embedding.Provider {
	case "openai", "gemini", "huggingface":
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("%w: provider %s", ErrMissingAPIKey, c.Embedding.Provider)
		}
	}
	return nil
}

func defaultDimension(provider string) int {
	switch provider {
	case "openai":
		return 1536
	case "gemini":
		return 768
	case "ollama":
		return 768
	case "huggingface":
		return 384
	default:
		return 256
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
