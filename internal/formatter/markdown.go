package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/sqlmeta/internal/schema"
)

// MarkdownFormatter formats schema as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the tables in markdown format
func (f *MarkdownFormatter) Format(tables []Table) error {
	_, _ = fmt.Fprintln(f.writer, "# Database Schema")
	_, _ = fmt.Fprintln(f.writer)

	for _, table := range tables {
		if err := f.FormatTable(table); err != nil {
			return err
		}
	}
	return nil
}

// FormatTable formats a single table (exported for use by multifile formatter)
func (f *MarkdownFormatter) FormatTable(table Table) error {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", table.Ref.QualifiedName())
	_, _ = fmt.Fprintf(f.writer, "Server `%s`, database `%s`\n\n", table.Ref.Server, table.Ref.Database)

	_, _ = fmt.Fprintln(f.writer, "### Columns")
	_, _ = fmt.Fprintln(f.writer)

	for _, col := range table.Schema.Columns() {
		constraintStr := formatConstraints(col)
		if constraintStr != "" {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s, %s\n", col.Name, col.DataType, constraintStr)
		} else {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", col.Name, col.DataType)
		}
	}
	_, err := fmt.Fprintln(f.writer)
	return err
}

func formatConstraints(col schema.TableColumn) string {
	var constraints []string
	if col.PkPosition != nil {
		constraints = append(constraints, "PK")
	}
	constraints = append(constraints, columnTraits(col)...)
	return strings.Join(constraints, ", ")
}
