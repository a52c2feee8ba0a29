package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// HashingModel 是一个本地、确定性的特征哈希向量化器。
// 每个小写词（以及相邻词对）被哈希到固定维度的桶中，结果做 L2 归一化，
// 因此余弦相似度等于点积。适用于开发环境和测试，不依赖任何外部服务。
type HashingModel struct {
	dim int
}

// NewHashingModel 创建一个指定维度的 HashingModel。
func NewHashingModel(dim int) (*HashingModel, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("hashing: dimension must be positive, got %d", dim)
	}
	return &HashingModel{dim: dim}, nil
}

// Dimension 返回向量维度。
func (m *HashingModel) Dimension() int {
	return m.dim
}

// Embed 为单个文本生成嵌入向量。空文本得到零向量。
func (m *HashingModel) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.vector(text), nil
}

// EmbedBatch 为一批文本生成嵌入向量。
func (m *HashingModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = m.vector(text)
	}
	return out, nil
}

func (m *HashingModel) vector(text string) []float32 {
	vec := make([]float32, m.dim)
	tokens := tokenize(text)
	for i, tok := range tokens {
		m.add(vec, tok, 1)
		if i > 0 {
			m.add(vec, tokens[i-1]+" "+tok, 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

// add 使用符号哈希减少桶冲突带来的偏差。
func (m *HashingModel) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(m.dim))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
