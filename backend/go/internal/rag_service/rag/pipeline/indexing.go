package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dataroom/backend/go/internal/models"
	"dataroom/backend/go/internal/rag_service/rag/interfaces"
)

// IndexAnswer chunks doc.RawText and writes every chunk in one batch insert.
// It returns the chunks that were written.
func (p *ProjectRag) IndexAnswer(ctx context.Context, doc models.Document) ([]models.DocumentChunk, error) {
	return p.indexDocument(ctx, doc, p.splitter)
}

// IndexFile is IndexAnswer for text extracted from an uploaded file; it splits
// with the file chunking profile.
func (p *ProjectRag) IndexFile(ctx context.Context, doc models.Document) ([]models.DocumentChunk, error) {
	return p.indexDocument(ctx, doc, p.fileSplitter)
}

func (p *ProjectRag) indexDocument(ctx context.Context, doc models.Document, splitter interfaces.Splitter) ([]models.DocumentChunk, error) {
	if strings.TrimSpace(doc.ID) == "" {
		return nil, ErrMissingDocumentID
	}
	texts := splitter.Split(doc.RawText)
	if len(texts) == 0 {
		return nil, ErrEmptyDocument
	}

	createdAt := doc.CreatedAt
	if createdAt == "" {
		createdAt = p.now().UTC().Format(time.RFC3339)
	}

	chunks := make([]models.DocumentChunk, len(texts))
	for i, text := range texts {
		chunks[i] = models.DocumentChunk{
			ID:          models.ChunkID(doc.ID, i),
			Content:     text,
			ChunkIndex:  i,
			TotalChunks: len(texts),
			DocumentID:  doc.ID,
			AnswerID:    doc.AnswerID,
			QuestionID:  doc.QuestionID,
			Metadata: models.ChunkMetadata{
				CreatedAt: createdAt,
				Category:  doc.Category,
			},
		}
	}

	if err := p.insert(ctx, chunks); err != nil {
		return nil, err
	}
	p.log.Info(fmt.Sprintf("Indexed document %s as %d chunks", doc.ID, len(chunks)))
	return chunks, nil
}

// IndexChunks writes pre-chunked content in one batch insert. Chunks are
// grouped by document in order of appearance and renumbered so each document's
// chunkIndex runs 0..N-1 and totalChunks is N. Chunks without an id get one
// derived from their document and position.
func (p *ProjectRag) IndexChunks(ctx context.Context, chunks []models.DocumentChunk) ([]models.DocumentChunk, error) {
	if len(chunks) == 0 {
		return nil, ErrEmptyDocument
	}

	totals := make(map[string]int)
	for _, c := range chunks {
		if strings.TrimSpace(c.DocumentID) == "" {
			return nil, ErrMissingDocumentID
		}
		if strings.TrimSpace(c.Content) == "" {
			return nil, fmt.Errorf("%w: chunk of document %s is blank", ErrEmptyDocument, c.DocumentID)
		}
		totals[c.DocumentID]++
	}

	stamp := p.now().UTC().Format(time.RFC3339)
	seen := make(map[string]int, len(totals))
	out := make([]models.DocumentChunk, len(chunks))
	for i, c := range chunks {
		idx := seen[c.DocumentID]
		seen[c.DocumentID]++

		c.ChunkIndex = idx
		c.TotalChunks = totals[c.DocumentID]
		if c.ID == "" {
			c.ID = models.ChunkID(c.DocumentID, idx)
		}
		if c.Metadata.CreatedAt == "" {
			c.Metadata.CreatedAt = stamp
		}
		out[i] = c
	}

	if err := p.insert(ctx, out); err != nil {
		return nil, err
	}
	p.log.Info(fmt.Sprintf("Indexed %d pre-split chunks across %d documents", len(out), len(totals)))
	return out, nil
}

func (p *ProjectRag) insert(ctx context.Context, chunks []models.DocumentChunk) error {
	records := make([]models.ChunkRecord, len(chunks))
	for i, c := range chunks {
		records[i] = c.ToRecord()
	}
	if err := p.store.InsertBatch(ctx, p.collection, records); err != nil {
		p.log.Error(fmt.Sprintf("Failed to index answer: %v", err))
		return &OpError{Op: OpIndexAnswer, Err: err}
	}
	return nil
}
