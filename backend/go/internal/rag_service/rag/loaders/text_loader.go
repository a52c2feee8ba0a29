package loaders

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrBinaryContent is returned when a file claimed to be text is not UTF-8.
var ErrBinaryContent = errors.New("content is not valid UTF-8 text")

// TextLoader reads plain text files as-is.
type TextLoader struct{}

// NewTextLoader creates a new TextLoader.
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

func (l *TextLoader) AcceptedExtensions() []string {
	return []string{".txt", ".text", ".csv", ".log"}
}

func (l *TextLoader) AcceptedMimeTypes() []string {
	return []string{"text/plain", "text/csv"}
}

func (l *TextLoader) Extract(ctx context.Context, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrBinaryContent
	}
	// Strip a UTF-8 byte order mark.
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}
