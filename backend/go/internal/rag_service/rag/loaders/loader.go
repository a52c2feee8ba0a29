package loaders

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"dataroom/backend/go/internal/rag_service/rag/interfaces"

	"github.com/gabriel-vasile/mimetype"
)

// ErrUnsupportedFormat is returned when no extractor accepts an upload.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Extractor turns the bytes of one file format into plain text.
type Extractor interface {
	AcceptedExtensions() []string
	AcceptedMimeTypes() []string
	Extract(ctx context.Context, data []byte) (string, error)
}

// AutoLoader picks an extractor for each upload. The file name's extension
// wins; otherwise the content is sniffed with mimetype.
type AutoLoader struct {
	extractors []Extractor
}

// NewAutoLoader registers the built-in extractors. Markdown is listed before
// plain text so .md files keep their own handling.
func NewAutoLoader() *AutoLoader {
	l := &AutoLoader{}
	l.Register(NewMarkdownLoader())
	l.Register(NewHTMLLoader())
	l.Register(NewPdfLoader())
	l.Register(NewXlsxLoader())
	l.Register(NewTextLoader())
	return l
}

// Register appends an extractor; earlier registrations take precedence.
func (l *AutoLoader) Register(e Extractor) {
	l.extractors = append(l.extractors, e)
}

// Load extracts the text of an uploaded file.
func (l *AutoLoader) Load(ctx context.Context, fileName string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if ext := strings.ToLower(filepath.Ext(fileName)); ext != "" {
		for _, e := range l.extractors {
			if slices.Contains(e.AcceptedExtensions(), ext) {
				return e.Extract(ctx, data)
			}
		}
	}

	mtype := mimetype.Detect(data)
	for _, e := range l.extractors {
		if accepts(mtype, e.AcceptedExtensions(), e.AcceptedMimeTypes()) {
			return e.Extract(ctx, data)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mtype.String())
}

func accepts(mtype *mimetype.MIME, extensions, mtypes []string) bool {
	if slices.Contains(extensions, mtype.Extension()) {
		return true
	}
	return slices.ContainsFunc(mtypes, mtype.Is)
}

var _ interfaces.Loader = (*AutoLoader)(nil)
