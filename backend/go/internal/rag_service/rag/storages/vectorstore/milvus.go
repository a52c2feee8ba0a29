package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"dataroom/backend/go/internal/config"
	"dataroom/backend/go/internal/database/milvus"
	"dataroom/backend/go/internal/embedding"
	"dataroom/backend/go/internal/models"
	"dataroom/backend/go/internal/rag_service/rag/interfaces"
	"dataroom/backend/go/internal/rag_service/rag/schema"
	"dataroom/backend/go/pkg/logger"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	// FieldEmbedding 是存放分块向量的字段。
	FieldEmbedding = "embedding"

	idMaxLength = 512
)

// ErrChunkTooLong 表示分块内容超过了 content 字段的 VarChar 上限。
var ErrChunkTooLong = errors.New("chunk content exceeds text max length")

// MilvusOptions 配置 MilvusStore 的集合结构与索引。
type MilvusOptions struct {
	Dimension     int
	TextMaxLength int
	Index         config.IndexConfig
}

// MilvusStore 将 VectorStore 端口适配到 Milvus。Milvus 本身不做向量化，
// 因此近文本查询由注入的 embedding 模型先把文本转成向量再做 ANN 搜索。
type MilvusStore struct {
	api      milvus.API
	embedder embedding.Embedding
	opts     MilvusOptions
	log      *logger.Logger
}

// NewMilvusStore 创建 MilvusStore。api 通常是 milvus.GetClient 返回的共享客户端。
func NewMilvusStore(api milvus.API, embedder embedding.Embedding, opts MilvusOptions, log *logger.Logger) (*MilvusStore, error) {
	if api == nil {
		return nil, fmt.Errorf("milvus client is not initialized")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedding model is required")
	}
	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive, got %d", opts.Dimension)
	}
	if opts.TextMaxLength <= 0 {
		opts.TextMaxLength = 65535
	}
	if opts.Index.MetricType == "" {
		opts.Index.MetricType = string(entity.COSINE)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &MilvusStore{api: api, embedder: embedder, opts: opts, log: log}, nil
}

// EnsureCollection 在集合不存在时按 schema 创建集合与向量索引，然后加载集合。
func (s *MilvusStore) EnsureCollection(ctx context.Context, cs schema.CollectionSchema) error {
	exists, err := s.api.HasCollection(ctx, cs.Name)
	if err != nil {
		return fmt.Errorf("检查集合是否存在时出错: %w", err)
	}

	if !exists {
		ms, err := s.buildSchema(cs)
		if err != nil {
			return err
		}
		if err := s.api.CreateCollection(ctx, ms); err != nil {
			return fmt.Errorf("创建集合 '%s' 失败: %w", cs.Name, err)
		}
		idx, err := milvus.BuildIndex(s.opts.Index)
		if err != nil {
			return err
		}
		if err := s.api.CreateIndex(ctx, cs.Name, FieldEmbedding, idx); err != nil {
			return fmt.Errorf("为字段 '%s' 创建索引失败: %w", FieldEmbedding, err)
		}
		s.log.Info(fmt.Sprintf("Created Milvus collection %s (dim=%d, index=%s/%s)",
			cs.Name, s.opts.Dimension, s.opts.Index.IndexType, s.opts.Index.MetricType))
	}

	if err := s.api.LoadCollection(ctx, cs.Name); err != nil {
		return fmt.Errorf("加载 Milvus 集合 '%s' 失败: %w", cs.Name, err)
	}
	return nil
}

func (s *MilvusStore) buildSchema(cs schema.CollectionSchema) (*entity.Schema, error) {
	ms := entity.NewSchema().
		WithName(cs.Name).
		WithDescription(cs.Description)

	for _, p := range cs.Properties {
		field := entity.NewField().WithName(p.Name)
		switch p.DataType {
		case schema.DataTypeText:
			maxLen := int64(s.opts.TextMaxLength)
			if p.Name == schema.PropChunkID {
				field = field.WithIsPrimaryKey(true)
				maxLen = idMaxLength
			}
			field = field.WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxLen)
		case schema.DataTypeInt:
			field = field.WithDataType(entity.FieldTypeInt64)
		default:
			return nil, fmt.Errorf("不支持的数据类型: %s", p.DataType)
		}
		ms = ms.WithField(field)
	}

	ms = ms.WithField(entity.NewField().
		WithName(FieldEmbedding).
		WithDataType(entity.FieldTypeFloatVector).
		WithDim(int64(s.opts.Dimension)))
	return ms, nil
}

// InsertBatch 对所有分块内容做一次批量向量化，再通过一次 Insert 写入。
func (s *MilvusStore) InsertBatch(ctx context.Context, collection string, records []models.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, r := range records {
		// Milvus 按字节计算 VarChar 长度，超长会让整批写入失败。
		if len(r.Content) > s.opts.TextMaxLength {
			return fmt.Errorf("%w: chunk %s is %d bytes, limit is %d", ErrChunkTooLong, r.ChunkID, len(r.Content), s.opts.TextMaxLength)
		}
		texts[i] = r.Content
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to vectorize chunks: %w", err)
	}
	if len(vectors) != len(records) {
		return fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(records))
	}
	for i, v := range vectors {
		if len(v) != s.opts.Dimension {
			return fmt.Errorf("vector %d has dimension %d, collection expects %d", i, len(v), s.opts.Dimension)
		}
	}

	n := len(records)
	var (
		chunkIDs     = make([]string, n)
		contents     = make([]string, n)
		answerIDs    = make([]string, n)
		questionIDs  = make([]string, n)
		chunkIndexes = make([]int64, n)
		totals       = make([]int64, n)
		createdAts   = make([]string, n)
		categories   = make([]string, n)
		documentIDs  = make([]string, n)
	)
	for i, r := range records {
		chunkIDs[i] = r.ChunkID
		contents[i] = r.Content
		answerIDs[i] = r.AnswerID
		questionIDs[i] = r.QuestionID
		chunkIndexes[i] = r.ChunkIndex
		totals[i] = r.TotalChunks
		createdAts[i] = r.CreatedAt
		categories[i] = r.Category
		documentIDs[i] = r.DocumentID
	}

	err = s.api.Insert(ctx, collection,
		entity.NewColumnVarChar(schema.PropChunkID, chunkIDs),
		entity.NewColumnVarChar(schema.PropContent, contents),
		entity.NewColumnVarChar(schema.PropAnswerID, answerIDs),
		entity.NewColumnVarChar(schema.PropQuestionID, questionIDs),
		entity.NewColumnInt64(schema.PropChunkIndex, chunkIndexes),
		entity.NewColumnInt64(schema.PropTotalChunks, totals),
		entity.NewColumnVarChar(schema.PropCreatedAt, createdAts),
		entity.NewColumnVarChar(schema.PropCategory, categories),
		entity.NewColumnVarChar(schema.PropDocumentID, documentIDs),
		entity.NewColumnFloatVector(FieldEmbedding, s.opts.Dimension, vectors),
	)
	if err != nil {
		return fmt.Errorf("failed to batch insert data into Milvus: %w", err)
	}
	s.log.Debug(fmt.Sprintf("Inserted %d chunks into Milvus collection %s", n, collection))
	return nil
}

// QueryNearText 向量化查询文本后执行 ANN 搜索。COSINE 与 IP 的分数按相似度上报，
// L2 的分数按距离上报。
func (s *MilvusStore) QueryNearText(ctx context.Context, collection, text string, limit int) ([]interfaces.Hit, error) {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to vectorize query: %w", err)
	}
	sp, err := milvus.BuildSearchParam(s.opts.Index)
	if err != nil {
		return nil, err
	}

	outputFields := make([]string, 0, len(schema.ChunkProperties()))
	for _, p := range schema.ChunkProperties() {
		outputFields = append(outputFields, p.Name)
	}

	results, err := s.api.Search(ctx, milvus.SearchRequest{
		Collection:   collection,
		OutputFields: outputFields,
		Vector:       vec,
		VectorField:  FieldEmbedding,
		Metric:       entity.MetricType(s.opts.Index.MetricType),
		TopK:         limit,
		Param:        sp,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search in Milvus: %w", err)
	}

	distanceMetric := entity.MetricType(s.opts.Index.MetricType) == entity.L2
	var hits []interfaces.Hit
	for _, res := range results {
		cols := resultColumns{}
		for _, field := range res.Fields {
			cols[field.Name()] = field
		}
		for i := 0; i < res.ResultCount; i++ {
			hit := interfaces.Hit{Record: cols.record(i)}
			if i < len(res.Scores) {
				score := float64(res.Scores[i])
				if distanceMetric {
					hit.Distance = &score
				} else {
					hit.Similarity = &score
				}
			}
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

// DeleteByDocument 删除 documentId 匹配的所有分块。
func (s *MilvusStore) DeleteByDocument(ctx context.Context, collection, documentID string) error {
	expr := schema.PropDocumentID + " == " + strconv.Quote(documentID)
	if err := s.api.Delete(ctx, collection, expr); err != nil {
		return fmt.Errorf("failed to delete data from Milvus: %w", err)
	}
	return nil
}

// Close 不关闭共享的 Milvus 客户端，它由进程入口统一关闭。
func (s *MilvusStore) Close() error {
	return nil
}

type resultColumns map[string]entity.Column

func (c resultColumns) str(name string, i int) string {
	if col, ok := c[name].(*entity.ColumnVarChar); ok && i < col.Len() {
		return col.Data()[i]
	}
	return ""
}

func (c resultColumns) integer(name string, i int) int64 {
	if col, ok := c[name].(*entity.ColumnInt64); ok && i < col.Len() {
		return col.Data()[i]
	}
	return 0
}

func (c resultColumns) record(i int) models.ChunkRecord {
	return models.ChunkRecord{
		ChunkID:     c.str(schema.PropChunkID, i),
		Content:     c.str(schema.PropContent, i),
		AnswerID:    c.str(schema.PropAnswerID, i),
		QuestionID:  c.str(schema.PropQuestionID, i),
		ChunkIndex:  c.integer(schema.PropChunkIndex, i),
		TotalChunks: c.integer(schema.PropTotalChunks, i),
		CreatedAt:   c.str(schema.PropCreatedAt, i),
		Category:    c.str(schema.PropCategory, i),
		DocumentID:  c.str(schema.PropDocumentID, i),
	}
}

// compile-time check to ensure MilvusStore implements the VectorStore interface
var _ interfaces.VectorStore = (*MilvusStore)(nil)
