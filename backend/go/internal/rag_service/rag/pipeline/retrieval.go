package pipeline

import (
	"context"
	"fmt"
	"math"
	"strings"

	"dataroom/backend/go/internal/models"
	"dataroom/backend/go/internal/rag_service/rag/interfaces"
	"dataroom/backend/go/internal/rag_service/rag/splitters"
)

const (
	maxHighlights      = 3
	maxHighlightLength = 200
)

// Search returns up to limit chunks nearest to query, in the order the
// backend ranked them. A non-positive limit means the configured default.
func (p *ProjectRag) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = p.defaultLimit
	}

	hits, err := p.store.QueryNearText(ctx, p.collection, query, limit)
	if err != nil {
		p.log.Error(fmt.Sprintf("Failed to search: %v", err))
		return nil, &OpError{Op: OpSearch, Err: err}
	}

	results := make([]models.SearchResult, 0, len(hits))
	for _, h := range hits {
		chunk := h.Record.ToChunk()
		results = append(results, models.SearchResult{
			Chunk:      chunk,
			Score:      Score(h),
			Highlights: highlights(chunk.Content, query),
		})
	}
	p.log.Debug(fmt.Sprintf("Search %q returned %d results", query, len(results)))
	return results, nil
}

// Score turns a hit into a similarity in [0,1]. A backend similarity is
// clamped; a distance d becomes 1/(1+d); a hit with neither scores 0.
func Score(h interfaces.Hit) float64 {
	switch {
	case h.Similarity != nil && finite(*h.Similarity):
		return math.Min(1, math.Max(0, *h.Similarity))
	case h.Distance != nil && finite(*h.Distance):
		return 1 / (1 + math.Max(0, *h.Distance))
	default:
		return 0
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// highlights picks the sentences of content that mention a query term.
func highlights(content, query string) []string {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil
	}

	var out []string
	for _, sentence := range splitters.Sentences(content) {
		lower := strings.ToLower(sentence)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				out = append(out, truncate(sentence, maxHighlightLength))
				break
			}
		}
		if len(out) == maxHighlights {
			break
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
