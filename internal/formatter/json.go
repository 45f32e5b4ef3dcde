package formatter

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/tordrt/sqlmeta/internal/schema"
)

// JSONFormatter writes tables and records in their interchange form
type JSONFormatter struct {
	writer io.Writer
	indent bool
}

// NewJSONFormatter creates a new JSON formatter. With indent set the output
// is pretty-printed.
func NewJSONFormatter(w io.Writer, indent bool) *JSONFormatter {
	return &JSONFormatter{writer: w, indent: indent}
}

type jsonTable struct {
	Table   schema.TableReference
	Columns *schema.TableSchema
}

// Format writes the tables as a JSON array of {"Table", "Columns"} objects
func (f *JSONFormatter) Format(tables []Table) error {
	out := make([]jsonTable, len(tables))
	for i, t := range tables {
		out[i] = jsonTable{Table: t.Ref, Columns: t.Schema}
	}
	return f.encode(out)
}

// FormatTable writes one table as a single JSON object
func (f *JSONFormatter) FormatTable(table Table) error {
	return f.encode(jsonTable{Table: table.Ref, Columns: table.Schema})
}

// FormatRecords writes the records as a JSON array
func (f *JSONFormatter) FormatRecords(records []*schema.DataRecord) error {
	if records == nil {
		records = []*schema.DataRecord{}
	}
	return f.encode(records)
}

// FormatRecord writes a single record
func (f *JSONFormatter) FormatRecord(record *schema.DataRecord) error {
	return f.encode(record)
}

func (f *JSONFormatter) encode(v any) error {
	var (
		data []byte
		err  error
	)
	if f.indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	_, err = fmt.Fprintln(f.writer, string(data))
	return err
}
