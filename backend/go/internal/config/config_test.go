package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MILVUS_ADDRESS", "MILVUS_API_KEY", "EMBEDDING_PROVIDER", "EMBEDDING_MODEL",
		"OPENAI_API_KEY", "EMBEDDING_API_KEY", "REDIS_ADDRESS", "KAFKA_BROKERS",
		"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MYSQL_ADDRESS", "HTTP_ADDRESS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "Answers", cfg.Rag.CollectionSuffix)
	assert.Equal(t, 5, cfg.Rag.DefaultLimit)
	assert.Equal(t, ChunkingConfig{MaxChunkSize: 500, OverlapSize: 50, MinChunkSize: 100}, cfg.Rag.Chunking.Default)
	assert.Equal(t, ChunkingConfig{MaxChunkSize: 300, OverlapSize: 20, MinChunkSize: 50}, cfg.Rag.Chunking.Indexing)
	assert.Equal(t, VectorStoreMemory, cfg.VectorStore.Type)
	assert.Equal(t, "hashing", cfg.Embedding.Provider)
	assert.Equal(t, 256, cfg.Embedding.Dimension)
}

func TestLoadParsesYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
logger:
  level: debug
rag:
  collectionSuffix: Docs
  chunking:
    indexing:
      maxChunkSize: 40
      overlapSize: 20
      minChunkSize: 10
vectorStore:
  type: milvus
  milvus:
    address: localhost:19530
    index:
      indexType: HNSW
      metricType: L2
embedding:
  provider: ollama
  model: nomic-embed-text
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "Docs", cfg.Rag.CollectionSuffix)
	assert.Equal(t, 40, cfg.Rag.Chunking.Indexing.MaxChunkSize)
	assert.Equal(t, "localhost:19530", cfg.VectorStore.Milvus.Address)
	assert.Equal(t, "HNSW", cfg.VectorStore.Milvus.Index.IndexType)
	assert.Equal(t, 768, cfg.Embedding.Dimension)
}

func TestEnvOverridesCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("MILVUS_ADDRESS", "milvus.internal:19530")
	t.Setenv("MILVUS_API_KEY", "secret")
	t.Setenv("EMBEDDING_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, VectorStoreMilvus, cfg.VectorStore.Type)
	assert.Equal(t, "milvus.internal:19530", cfg.VectorStore.Milvus.Address)
	assert.Equal(t, "secret", cfg.VectorStore.Milvus.APIKey)
	assert.Equal(t, "sk-test", cfg.Embedding.APIKey)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Databases.Kafka.Brokers)
}

func TestValidateFailsFast(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeConfig(t, "vectorStore:\n  type: milvus\n"))
	assert.ErrorIs(t, err, ErrMissingBackendAddress)

	_, err = Load(writeConfig(t, "embedding:\n  provider: openai\n"))
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = Load(writeConfig(t, "vectorStore:\n  type: pinecone\n"))
	assert.Error(t, err)
}

func TestLoadConfigReportsBadYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "rag: [unclosed"))
	assert.Error(t, err)
}

func TestCircuitBreakerIsOptIn(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.VectorStore.CircuitBreaker.Enabled)
	assert.Equal(t, uint32(5), cfg.VectorStore.CircuitBreaker.FailureThreshold)

	shipped, err := Load(filepath.Join("..", "..", "..", "..", "config", "config.yaml"))
	require.NoError(t, err)
	assert.False(t, shipped.VectorStore.CircuitBreaker.Enabled)
	assert.Equal(t, ChunkingConfig{MaxChunkSize: 500, OverlapSize: 50, MinChunkSize: 100}, shipped.Rag.Chunking.Default)
}
