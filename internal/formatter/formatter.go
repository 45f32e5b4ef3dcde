package formatter

import (
	"fmt"
	"io"
	"strings"
)

// Formatter renders table schemas to a single writer
type Formatter interface {
	Format(tables []Table) error
	FormatTable(table Table) error
}

// New returns the single-writer formatter for format
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case FormatText:
		return NewTextFormatter(w), nil
	case FormatMarkdown:
		return NewMarkdownFormatter(w), nil
	case FormatJSON:
		return NewJSONFormatter(w, true), nil
	default:
		return nil, fmt.Errorf("invalid format: %s (must be one of %s)", format, strings.Join(Formats, ", "))
	}
}
