package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/sqlmeta/internal/schema"
)

// Table pairs a table's identity with its column schema
type Table struct {
	Ref    schema.TableReference
	Schema *schema.TableSchema
}

// TextFormatter formats schema as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the tables in compact text format
func (f *TextFormatter) Format(tables []Table) error {
	for i, table := range tables {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		}

		if err := f.FormatTable(table); err != nil {
			return err
		}
	}
	return nil
}

// FormatTable writes a single table
func (f *TextFormatter) FormatTable(table Table) error {
	// Table header with primary key
	pkStr := ""
	if pk := table.Schema.PkColumnNames(); len(pk) > 0 {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(pk, ", "))
	}
	if _, err := fmt.Fprintf(f.writer, "TABLE %s%s\n", table.Ref.QualifiedName(), pkStr); err != nil {
		return err
	}

	for _, col := range table.Schema.Columns() {
		if _, err := fmt.Fprintf(f.writer, "  %s\n", formatColumn(col)); err != nil {
			return err
		}
	}
	return nil
}

func formatColumn(col schema.TableColumn) string {
	parts := []string{col.Name + ":", col.DataType.String()}
	return strings.Join(append(parts, columnTraits(col)...), " ")
}

// columnTraits describes everything about a column beyond its name and type
func columnTraits(col schema.TableColumn) []string {
	var traits []string

	if col.IsIdentity {
		identity := "IDENTITY"
		if col.IdentitySeed != nil && col.IdentityIncrement != nil {
			identity = fmt.Sprintf("IDENTITY(%d,%d)", *col.IdentitySeed, *col.IdentityIncrement)
		}
		traits = append(traits, identity)
	}

	if col.IsComputed {
		if col.ComputedLogic != nil {
			traits = append(traits, "AS "+*col.ComputedLogic)
		} else {
			traits = append(traits, "COMPUTED")
		}
		if col.IsPersisted {
			traits = append(traits, "PERSISTED")
		}
	}

	if !col.IsNullable {
		traits = append(traits, "NOT NULL")
	}

	if col.HasDefault {
		if col.DefaultLogic != nil {
			traits = append(traits, "DEFAULT "+*col.DefaultLogic)
		} else {
			traits = append(traits, "DEFAULT")
		}
	}

	if col.DataType.Collation != nil {
		traits = append(traits, "COLLATE "+*col.DataType.Collation)
	}

	return traits
}
