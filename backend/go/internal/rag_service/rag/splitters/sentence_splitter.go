package splitters

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"dataroom/backend/go/internal/rag_service/rag/interfaces"
)

// ErrInvalidConfig is returned when a chunking configuration cannot produce
// bounded chunks.
var ErrInvalidConfig = errors.New("invalid chunking config")

// Config bounds chunk sizes in characters. The overlap carried into the next
// chunk is the last OverlapSize/10 words of the previous one, trimmed from the
// front until it is at most OverlapSize characters.
type Config struct {
	MaxChunkSize int
	OverlapSize  int
	MinChunkSize int
}

// DefaultConfig is the general-purpose profile.
var DefaultConfig = Config{MaxChunkSize: 500, OverlapSize: 50, MinChunkSize: 100}

// IndexingConfig is the tighter profile used when writing answers to the index.
var IndexingConfig = Config{MaxChunkSize: 300, OverlapSize: 20, MinChunkSize: 50}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	switch {
	case c.MaxChunkSize <= 0:
		return fmt.Errorf("%w: maxChunkSize must be positive, got %d", ErrInvalidConfig, c.MaxChunkSize)
	case c.MinChunkSize < 0 || c.OverlapSize < 0:
		return fmt.Errorf("%w: sizes must not be negative", ErrInvalidConfig)
	case c.MinChunkSize >= c.MaxChunkSize:
		return fmt.Errorf("%w: minChunkSize %d must be below maxChunkSize %d", ErrInvalidConfig, c.MinChunkSize, c.MaxChunkSize)
	case c.OverlapSize >= c.MaxChunkSize:
		return fmt.Errorf("%w: overlapSize %d must be below maxChunkSize %d", ErrInvalidConfig, c.OverlapSize, c.MaxChunkSize)
	}
	return nil
}

// overlapWords is how many trailing words seed the next chunk.
func (c Config) overlapWords() int {
	return c.OverlapSize / 10
}

// A sentence is any run ending in terminal punctuation; unterminated trailing
// text is kept as a sentence of its own.
var sentenceRegex = regexp.MustCompile(`[^.!?]*[.!?]+|[^.!?]+`)

// SentenceSplitter greedily packs whole sentences into chunks of at most
// MaxChunkSize characters, overlapping consecutive chunks by a few words.
type SentenceSplitter struct {
	cfg Config
}

// NewSentenceSplitter creates a SentenceSplitter after validating cfg.
func NewSentenceSplitter(cfg Config) (*SentenceSplitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &SentenceSplitter{cfg: cfg}, nil
}

// Config returns the splitter's configuration.
func (s *SentenceSplitter) Config() Config {
	return s.cfg
}

// Split turns content into sentence-aligned chunks. Non-blank input always
// yields at least one chunk; blank input yields none.
func (s *SentenceSplitter) Split(content string) []string {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	sentences := splitSentences(content)
	if len(sentences) == 0 {
		return []string{content}
	}

	var chunks []string
	current := ""
	for _, sentence := range sentences {
		candidate := joinSpace(current, sentence)
		if runeLen(candidate) <= s.cfg.MaxChunkSize {
			current = candidate
			continue
		}
		if current != "" && runeLen(current) >= s.cfg.MinChunkSize {
			chunks = append(chunks, current)
			current = joinSpace(s.overlapSeed(current), sentence)
			continue
		}
		// Too small to emit: overflow past the bound instead.
		current = candidate
	}

	switch {
	case current == "":
	case runeLen(current) >= s.cfg.MinChunkSize || len(chunks) == 0:
		chunks = append(chunks, current)
	default:
		chunks[len(chunks)-1] = joinSpace(chunks[len(chunks)-1], current)
	}

	if len(chunks) == 0 {
		return []string{content}
	}
	return chunks
}

// Sentences splits content into trimmed sentences the way Split sees them.
func Sentences(content string) []string {
	return splitSentences(content)
}

func splitSentences(content string) []string {
	matches := sentenceRegex.FindAllString(content, -1)
	sentences := make([]string, 0, len(matches))
	for _, m := range matches {
		if m = strings.TrimSpace(m); m != "" {
			sentences = append(sentences, m)
		}
	}
	return sentences
}

func (s *SentenceSplitter) overlapSeed(chunk string) string {
	words := strings.Fields(lastWords(chunk, s.cfg.overlapWords()))
	for len(words) > 0 && runeLen(strings.Join(words, " ")) > s.cfg.OverlapSize {
		words = words[1:]
	}
	return strings.Join(words, " ")
}

func lastWords(text string, n int) string {
	if n <= 0 {
		return ""
	}
	words := strings.Fields(text)
	if len(words) > n {
		words = words[len(words)-n:]
	}
	return strings.Join(words, " ")
}

func joinSpace(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " " + b
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// compile-time check to ensure SentenceSplitter implements the Splitter interface
var _ interfaces.Splitter = (*SentenceSplitter)(nil)
