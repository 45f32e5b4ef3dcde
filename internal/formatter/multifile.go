package formatter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// Output formats understood by the formatters
const (
	FormatMarkdown = "markdown"
	FormatText     = "text"
	FormatJSON     = "json"
)

// Formats lists the accepted output format names
var Formats = []string{FormatText, FormatMarkdown, FormatJSON}

// MultiFileFormatter writes schema to multiple files in a directory
type MultiFileFormatter struct {
	OutputDir    string
	OutputFormat string // "text", "markdown" or "json"
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir, format string) *MultiFileFormatter {
	return &MultiFileFormatter{
		OutputDir:    outputDir,
		OutputFormat: format,
	}
}

// Format writes one file per table plus an overview
func (f *MultiFileFormatter) Format(tables []Table) error {
	if !validFormat(f.OutputFormat) {
		return fmt.Errorf("invalid format: %s (must be one of %s)", f.OutputFormat, strings.Join(Formats, ", "))
	}

	// Create output directory if it doesn't exist
	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.writeOverview(tables); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for _, table := range tables {
		if err := f.writeTableFile(table); err != nil {
			return fmt.Errorf("failed to write table file for %s: %w", table.Ref.QualifiedName(), err)
		}
	}

	return nil
}

// FileName returns the file a table is written to
func (f *MultiFileFormatter) FileName(table Table) string {
	return table.Ref.QualifiedName() + f.getFileExtension()
}

func (f *MultiFileFormatter) writeOverview(tables []Table) error {
	filename := filepath.Join(f.OutputDir, "_overview"+f.getFileExtension())

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	sorted := make([]Table, len(tables))
	copy(sorted, tables)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Ref.QualifiedName() < sorted[j].Ref.QualifiedName()
	})

	switch f.OutputFormat {
	case FormatMarkdown:
		return f.writeMarkdownOverview(file, sorted)
	case FormatJSON:
		return f.writeJSONOverview(file, sorted)
	default:
		return f.writeTextOverview(file, sorted)
	}
}

func (f *MultiFileFormatter) writeMarkdownOverview(w io.Writer, tables []Table) error {
	_, _ = fmt.Fprintf(w, "# Schema Overview\n\n")
	_, _ = fmt.Fprintf(w, "Each table has a corresponding file: `<schema>.<table>%s`\n\n", f.getFileExtension())
	_, _ = fmt.Fprintf(w, "## Tables\n\n")

	for _, table := range tables {
		_, _ = fmt.Fprintf(w, "- **%s** (%d columns", table.Ref.QualifiedName(), table.Schema.Len())
		if pk := table.Schema.PkColumnNames(); len(pk) > 0 {
			_, _ = fmt.Fprintf(w, ", PK: %s", strings.Join(pk, ", "))
		}
		if _, err := fmt.Fprintf(w, ")\n"); err != nil {
			return err
		}
	}
	return nil
}

func (f *MultiFileFormatter) writeTextOverview(w io.Writer, tables []Table) error {
	_, _ = fmt.Fprintf(w, "SCHEMA OVERVIEW\n")
	_, _ = fmt.Fprintf(w, "Each table has a file: <schema>.<table>%s\n\n", f.getFileExtension())

	for _, table := range tables {
		if _, err := fmt.Fprintf(w, "%s (%d columns)\n", table.Ref.QualifiedName(), table.Schema.Len()); err != nil {
			return err
		}
	}
	return nil
}

func (f *MultiFileFormatter) writeJSONOverview(w io.Writer, tables []Table) error {
	type entry struct {
		Table   string
		File    string
		Columns int
	}
	entries := make([]entry, len(tables))
	for i, table := range tables {
		entries[i] = entry{Table: table.Ref.String(), File: f.FileName(table), Columns: table.Schema.Len()}
	}
	return NewJSONFormatter(w, true).encode(entries)
}

// writeTableFile writes a single table to its own file
func (f *MultiFileFormatter) writeTableFile(table Table) error {
	file, err := os.Create(filepath.Join(f.OutputDir, f.FileName(table)))
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	switch f.OutputFormat {
	case FormatMarkdown:
		return NewMarkdownFormatter(file).FormatTable(table)
	case FormatJSON:
		return NewJSONFormatter(file, true).FormatTable(table)
	default:
		return NewTextFormatter(file).FormatTable(table)
	}
}

func (f *MultiFileFormatter) getFileExtension() string {
	switch f.OutputFormat {
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

func validFormat(format string) bool {
	return slices.Contains(Formats, format)
}
