package export

import (
	"fmt"
	"strings"
)

// Supported formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// Column describes one exported field. Width is only used by the PDF renderer, in millimetres;
// zero shares the remaining space.
type Column struct {
	Key   string
	Title string
	Width float64
}

// Dataset defines tabular export content.
type Dataset struct {
	Title   string
	Columns []Column
	Rows    []map[string]string
}

// Renderer turns a dataset into a downloadable document.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ForFormat returns the renderer of format (case-insensitive). An empty format means CSV.
func ForFormat(format string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatCSV:
		return NewCSVRenderer(), nil
	case FormatPDF:
		return NewPDFRenderer(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// FileName builds "<base>.<ext>" with spaces replaced.
func FileName(base string, r Renderer) string {
	base = strings.ReplaceAll(strings.TrimSpace(base), " ", "_")
	if base == "" {
		base = "export"
	}
	return base + "." + r.Extension()
}

func validate(data Dataset) error {
	if len(data.Columns) == 0 {
		return fmt.Errorf("export requires at least one column")
	}
	return nil
}
