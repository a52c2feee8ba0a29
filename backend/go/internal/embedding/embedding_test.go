package embedding

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"dataroom/backend/go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestHashingModelIsDeterministicAndNormalized(t *testing.T) {
	m, err := NewHashingModel(64)
	require.NoError(t, err)
	ctx := context.Background()

	a, err := m.Embed(ctx, "Revenue grew twelve percent in 2023.")
	require.NoError(t, err)
	b, err := m.Embed(ctx, "Revenue grew twelve percent in 2023.")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.InDelta(t, 1.0, math.Sqrt(dot(a, a)), 1e-5)
}

func TestHashingModelRanksRelatedTextHigher(t *testing.T) {
	m, err := NewHashingModel(256)
	require.NoError(t, err)
	ctx := context.Background()

	vecs, err := m.EmbedBatch(ctx, []string{
		"data retention policy",
		"Our data retention policy keeps records for seven years.",
		"The office cafeteria serves lunch at noon.",
	})
	require.NoError(t, err)

	assert.Greater(t, dot(vecs[0], vecs[1]), dot(vecs[0], vecs[2]))
}

func TestHashingModelEmptyTextIsZeroVector(t *testing.T) {
	m, err := NewHashingModel(8)
	require.NoError(t, err)

	vec, err := m.Embed(context.Background(), "  ...  ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), vec)
}

func TestHashingModelRejectsBadDimension(t *testing.T) {
	_, err := NewHashingModel(0)
	assert.Error(t, err)
}

func TestNewEmdModel(t *testing.T) {
	m, err := NewEmdModel(config.EmbeddingConfig{Provider: "hashing", Dimension: 32})
	require.NoError(t, err)
	assert.IsType(t, &HashingModel{}, m)

	_, err = NewEmdModel(config.EmbeddingConfig{Provider: "word2vec"})
	assert.Error(t, err)

	_, err = NewEmdModel(config.EmbeddingConfig{Provider: "openai"})
	assert.Error(t, err)
}

type countingModel struct {
	calls int
	fail  bool
}

func (c *countingModel) Embed(_ context.Context, text string) ([]float32, error) {
	c.calls++
	if c.fail {
		return nil, errors.New("provider down")
	}
	return []float32{float32(len(text))}, nil
}

func (c *countingModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := c.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func TestCachedModelServesRepeatQueriesFromCache(t *testing.T) {
	inner := &countingModel{}
	cache, err := NewLRUVectorCache(10, time.Minute)
	require.NoError(t, err)
	m := NewCachedModel(inner, cache, "test/m/1", nil)
	ctx := context.Background()

	first, err := m.Embed(ctx, "query")
	require.NoError(t, err)
	second, err := m.Embed(ctx, "query")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1, cache.Len())
}

func TestCachedModelDoesNotCacheFailures(t *testing.T) {
	inner := &countingModel{fail: true}
	cache, err := NewLRUVectorCache(10, 0)
	require.NoError(t, err)
	m := NewCachedModel(inner, cache, "k", nil)

	_, err = m.Embed(context.Background(), "q")
	assert.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}

func TestCachedModelSeparatesModelKeys(t *testing.T) {
	cache, err := NewLRUVectorCache(10, 0)
	require.NoError(t, err)
	a := NewCachedModel(&countingModel{}, cache, "a", nil)
	b := NewCachedModel(&countingModel{}, cache, "b", nil)

	_, _ = a.Embed(context.Background(), "same")
	_, _ = b.Embed(context.Background(), "same")

	assert.Equal(t, 2, cache.Len())
}

func TestCachedModelBatchBypassesCache(t *testing.T) {
	inner := &countingModel{}
	cache, err := NewLRUVectorCache(10, 0)
	require.NoError(t, err)
	m := NewCachedModel(inner, cache, "k", nil)

	_, err = m.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 0, cache.Len())
	assert.Equal(t, 2, inner.calls)
}
