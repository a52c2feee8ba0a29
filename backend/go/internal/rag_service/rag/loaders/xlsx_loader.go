package loaders

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XlsxLoader converts each sheet of an Excel workbook to a Markdown table
// headed by the sheet name.
type XlsxLoader struct{}

// NewXlsxLoader creates a new XlsxLoader.
func NewXlsxLoader() *XlsxLoader {
	return &XlsxLoader{}
}

func (l *XlsxLoader) AcceptedExtensions() []string {
	return []string{".xlsx"}
}

func (l *XlsxLoader) AcceptedMimeTypes() []string {
	return []string{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"}
}

func (l *XlsxLoader) Extract(ctx context.Context, data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var mdBuilder strings.Builder
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil || len(rows) == 0 {
			// Skip sheets that can't be read
			continue
		}

		// Sentence-final punctuation keeps the splitter from merging sheets.
		mdBuilder.WriteString("## " + sheetName + ".\n\n")
		mdBuilder.WriteString("| " + strings.Join(rows[0], " | ") + " |\n")
		mdBuilder.WriteString("|" + strings.Repeat(" --- |", len(rows[0])) + "\n")
		for _, row := range rows[1:] {
			mdBuilder.WriteString("| " + strings.Join(row, " | ") + " |\n")
		}
		mdBuilder.WriteString("\n")
	}
	return mdBuilder.String(), nil
}
