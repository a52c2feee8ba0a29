package milvus

import (
	"testing"

	"dataroom/backend/go/internal/config"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildIndex(t *testing.T) {
	for _, typ := range []string{"", "AUTOINDEX", "IVF_FLAT", "HNSW", "IVF_SQ8", "IVF_PQ"} {
		idx, err := BuildIndex(config.IndexConfig{IndexType: typ, MetricType: "COSINE"})
		require.NoError(t, err, typ)
		assert.NotNil(t, idx, typ)

		sp, err := BuildSearchParam(config.IndexConfig{IndexType: typ})
		require.NoError(t, err, typ)
		assert.NotNil(t, sp, typ)
	}

	_, err := BuildIndex(config.IndexConfig{IndexType: "DISKANN_V9"})
	assert.Error(t, err)
	_, err = BuildSearchParam(config.IndexConfig{IndexType: "DISKANN_V9"})
	assert.Error(t, err)
}

func TestBuildIndexUsesParams(t *testing.T) {
	idx, err := BuildIndex(config.IndexConfig{
		IndexType:  "HNSW",
		MetricType: string(entity.L2),
		Params:     map[string]interface{}{"M": 16, "efConstruction": 200},
	})
	require.NoError(t, err)

	params := idx.Params()
	assert.Equal(t, "HNSW", params["index_type"])
	assert.Equal(t, "L2", params["metric_type"])
}

func TestIntParam(t *testing.T) {
	params := map[string]interface{}{"a": 3, "b": int64(4), "c": 5.0, "d": "x"}
	assert.Equal(t, 3, intParam(params, "a", 0))
	assert.Equal(t, 4, intParam(params, "b", 0))
	assert.Equal(t, 5, intParam(params, "c", 0))
	assert.Equal(t, 9, intParam(params, "d", 9))
	assert.Equal(t, 7, intParam(nil, "missing", 7))
}
