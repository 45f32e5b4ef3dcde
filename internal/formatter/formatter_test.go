package formatter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/sqlmeta/internal/schema"
)

func ordersTable(t *testing.T) Table {
	t.Helper()

	s, err := schema.CreateFrom([]schema.TableColumn{
		{
			Name:              "Id",
			DataType:          schema.DataType{BaseType: schema.TypeInt, MaxLength: 4, Precision: 10},
			PkPosition:        schema.IntPtr(1),
			IsIdentity:        true,
			IdentitySeed:      schema.IntPtr(1),
			IdentityIncrement: schema.IntPtr(1),
		},
		{
			Name:         "Customer",
			DataType:     schema.DataType{BaseType: schema.TypeNVarChar, MaxLength: 100},
			HasDefault:   true,
			DefaultLogic: schema.StrPtr("('')"),
		},
		{
			Name:          "Total",
			DataType:      schema.DataType{BaseType: schema.TypeDecimal, MaxLength: 9, Precision: 18, Scale: 2},
			IsNullable:    true,
			IsComputed:    true,
			IsPersisted:   true,
			ComputedLogic: schema.StrPtr("([Qty]*[Price])"),
		},
	})
	require.NoError(t, err)

	return Table{
		Ref:    schema.TableReference{Server: "sql01", Database: "Sales", Schema: "dbo", Name: "Orders"},
		Schema: s,
	}
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextFormatter(&buf).Format([]Table{ordersTable(t)}))

	want := strings.Join([]string{
		"TABLE dbo.Orders (PK: Id)",
		"  Id: Int IDENTITY(1,1) NOT NULL",
		"  Customer: NVarChar(100) NOT NULL DEFAULT ('')",
		"  Total: Decimal(18,2) AS ([Qty]*[Price]) PERSISTED",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestTextFormatterSeparatesTables(t *testing.T) {
	var buf bytes.Buffer
	table := ordersTable(t)
	require.NoError(t, NewTextFormatter(&buf).Format([]Table{table, table}))
	assert.Equal(t, 2, strings.Count(buf.String(), "TABLE dbo.Orders"))
	assert.Contains(t, buf.String(), "PERSISTED\n\nTABLE")
}

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownFormatter(&buf).Format([]Table{ordersTable(t)}))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "# Database Schema\n\n## dbo.Orders\n\n"))
	assert.Contains(t, out, "Server `sql01`, database `Sales`")
	assert.Contains(t, out, "- **Id:** Int, PK, IDENTITY(1,1), NOT NULL\n")
	assert.Contains(t, out, "- **Total:** Decimal(18,2), AS ([Qty]*[Price]), PERSISTED\n")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(&buf, false).Format([]Table{ordersTable(t)}))

	out := buf.String()
	assert.Contains(t, out, `"Table":{"Server":"sql01","Database":"Sales","Schema":"dbo","Name":"Orders"}`)
	assert.Contains(t, out, `"SqlDbType":"NVarChar"`)
	assert.True(t, strings.HasPrefix(out, "["))
}

func TestJSONFormatterRecords(t *testing.T) {
	rec := schema.NewDataRecord()
	rec.Set("Id", schema.IntValue(7))
	rec.Set("Customer", schema.TextValue("Ann"))

	var buf bytes.Buffer
	f := NewJSONFormatter(&buf, false)
	require.NoError(t, f.FormatRecords([]*schema.DataRecord{rec}))
	assert.Equal(t, "[{\"Id\":7,\"Customer\":\"Ann\"}]\n", buf.String())

	buf.Reset()
	require.NoError(t, f.FormatRecords(nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestNew(t *testing.T) {
	for _, format := range Formats {
		f, err := New(format, &bytes.Buffer{})
		require.NoError(t, err, format)
		assert.NotNil(t, f)
	}

	_, err := New("yaml", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestMultiFileFormatter(t *testing.T) {
	tests := []struct {
		format    string
		tableFile string
		overview  string
		contains  string
	}{
		{format: FormatMarkdown, tableFile: "dbo.Orders.md", overview: "_overview.md", contains: "## dbo.Orders"},
		{format: FormatText, tableFile: "dbo.Orders.txt", overview: "_overview.txt", contains: "TABLE dbo.Orders"},
		{format: FormatJSON, tableFile: "dbo.Orders.json", overview: "_overview.json", contains: `"Orders"`},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "out")
			require.NoError(t, NewMultiFileFormatter(dir, tt.format).Format([]Table{ordersTable(t)}))

			data, err := os.ReadFile(filepath.Join(dir, tt.tableFile))
			require.NoError(t, err)
			assert.Contains(t, string(data), tt.contains)

			overview, err := os.ReadFile(filepath.Join(dir, tt.overview))
			require.NoError(t, err)
			assert.Contains(t, string(overview), "dbo.Orders")
		})
	}
}

func TestMultiFileFormatterRejectsUnknownFormat(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	err := NewMultiFileFormatter(dir, "yaml").Format(nil)
	assert.Error(t, err)

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}
