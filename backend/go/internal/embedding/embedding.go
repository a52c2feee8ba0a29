package embedding

import (
	"fmt"

	"dataroom/backend/go/internal/config"
)

// NewEmdModel 根据向量化配置创建 Embedding 模型实例。
//
// 参数:
//
//	cfg: 向量化配置，provider 取值为 "openai"、"gemini"、"huggingface"、"ollama" 或 "hashing"。
//
// 返回值:
//
//	Embedding: 新创建的 Embedding 模型实例。
//	error: 如果提供商不支持或模型初始化失败，则返回错误。
func NewEmdModel(cfg config.EmbeddingConfig) (Embedding, error) {
	switch ModelType(cfg.Provider) {
	case Gemini:
		return NewGoogleModel(cfg.APIKey, cfg.Model)
	case OpenAI:
		return NewOpenAIModel(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case HuggingFace:
		return NewHuggingFaceModel(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case Ollama:
		return NewOllamaModel(cfg.Model, cfg.BaseURL)
	case Hashing, "":
		return NewHashingModel(cfg.Dimension)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

// ModelKey 返回标识一个向量空间的键，用于缓存隔离。
func ModelKey(cfg config.EmbeddingConfig) string {
	return fmt.Sprintf("%s/%s/%d", cfg.Provider, cfg.Model, cfg.Dimension)
}
