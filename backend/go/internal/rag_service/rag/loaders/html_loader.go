package loaders

import (
	"context"
	"fmt"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// HTMLLoader converts saved web pages to Markdown, dropping markup and scripts.
type HTMLLoader struct{}

// NewHTMLLoader creates a new HTMLLoader.
func NewHTMLLoader() *HTMLLoader {
	return &HTMLLoader{}
}

func (l *HTMLLoader) AcceptedExtensions() []string {
	return []string{".html", ".htm"}
}

func (l *HTMLLoader) AcceptedMimeTypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

func (l *HTMLLoader) Extract(ctx context.Context, data []byte) (string, error) {
	markdown, err := htmltomarkdown.ConvertString(string(data))
	if err != nil {
		return "", fmt.Errorf("failed to convert html: %w", err)
	}
	return markdown, nil
}
