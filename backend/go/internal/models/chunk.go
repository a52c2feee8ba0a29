package models

import "fmt"

// ChunkMetadata carries optional provenance copied from the source document
// (or the question it answers) at index time.
type ChunkMetadata struct {
	CreatedAt string `json:"createdAt,omitempty"`
	Category  string `json:"category,omitempty"`
}

// DocumentChunk is a contiguous span of a document's text assigned to a
// project's search index. Chunks are created in bulk and never updated.
type DocumentChunk struct {
	ID          string        `json:"id"`
	Content     string        `json:"content"`
	ChunkIndex  int           `json:"chunkIndex"`
	TotalChunks int           `json:"totalChunks"`
	DocumentID  string        `json:"documentId"`
	AnswerID    string        `json:"answerId,omitempty"`
	QuestionID  string        `json:"questionId,omitempty"`
	Metadata    ChunkMetadata `json:"metadata"`
}

// ChunkID derives the identifier of the index-th chunk of a document.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, index)
}

// SearchResult is a transient projection of a semantic query. Score is a
// similarity in [0,1]; higher means more relevant.
type SearchResult struct {
	Chunk      DocumentChunk `json:"chunk"`
	Score      float64       `json:"score"`
	Highlights []string      `json:"highlights,omitempty"`
}

// ChunkRecord is the flat storage shape of a chunk inside a vector collection.
// Field names mirror the collection properties.
type ChunkRecord struct {
	ChunkID     string `json:"chunkId"`
	Content     string `json:"content"`
	AnswerID    string `json:"answerId"`
	QuestionID  string `json:"questionId"`
	ChunkIndex  int64  `json:"chunkIndex"`
	TotalChunks int64  `json:"totalChunks"`
	CreatedAt   string `json:"createdAt"`
	Category    string `json:"category"`
	DocumentID  string `json:"documentId"`
}

// ToRecord flattens a chunk into its storage shape.
func (c DocumentChunk) ToRecord() ChunkRecord {
	return ChunkRecord{
		ChunkID:     c.ID,
		Content:     c.Content,
		AnswerID:    c.AnswerID,
		QuestionID:  c.QuestionID,
		ChunkIndex:  int64(c.ChunkIndex),
		TotalChunks: int64(c.TotalChunks),
		CreatedAt:   c.Metadata.CreatedAt,
		Category:    c.Metadata.Category,
		DocumentID:  c.DocumentID,
	}
}

// ToChunk rebuilds the DocumentChunk a record was stored from.
func (r ChunkRecord) ToChunk() DocumentChunk {
	return DocumentChunk{
		ID:          r.ChunkID,
		Content:     r.Content,
		ChunkIndex:  int(r.ChunkIndex),
		TotalChunks: int(r.TotalChunks),
		DocumentID:  r.DocumentID,
		AnswerID:    r.AnswerID,
		QuestionID:  r.QuestionID,
		Metadata: ChunkMetadata{
			CreatedAt: r.CreatedAt,
			Category:  r.Category,
		},
	}
}
