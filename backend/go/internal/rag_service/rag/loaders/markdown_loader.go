package loaders

import (
	"context"
	"regexp"
	"unicode/utf8"
)

// MarkdownLoader reads Markdown (.md) files, replacing image references with
// their alt text so links to binaries do not end up in chunks.
type MarkdownLoader struct{}

// NewMarkdownLoader creates a new MarkdownLoader.
func NewMarkdownLoader() *MarkdownLoader {
	return &MarkdownLoader{}
}

// imageRegex matches Markdown image syntax (e.g., ![alt text](path/to/image.jpg))
var imageRegex = regexp.MustCompile(`!\[(.*?)\]\((.*?)\)`)

func (l *MarkdownLoader) AcceptedExtensions() []string {
	return []string{".md", ".markdown"}
}

func (l *MarkdownLoader) AcceptedMimeTypes() []string {
	return []string{"text/markdown"}
}

func (l *MarkdownLoader) Extract(ctx context.Context, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrBinaryContent
	}
	return imageRegex.ReplaceAllString(string(data), "$1"), nil
}
