package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tordrt/sqlmeta/internal/schema"
)

// SQLiteExtractor runs catalog and data queries against SQLite
type SQLiteExtractor struct {
	client *SQLiteClient
}

// NewSQLiteExtractor creates a new SQLite extractor
func NewSQLiteExtractor(client *SQLiteClient) *SQLiteExtractor {
	return &SQLiteExtractor{client: client}
}

// TableNames returns the base tables in schemaName
func (e *SQLiteExtractor) TableNames(ctx context.Context, schemaName string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT name
		FROM %s.sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%%'
		ORDER BY name
	`, quoteIdent(schemaName, `"`))

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}

	return tables, rows.Err()
}

// TableExists reports whether a table with the given name exists
func (e *SQLiteExtractor) TableExists(ctx context.Context, schemaName, tableName string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM %s.sqlite_master
		WHERE type = 'table' AND name = ?
	`, quoteIdent(schemaName, `"`))

	var n int
	if err := e.client.GetDB().QueryRowContext(ctx, query, tableName).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return n > 0, nil
}

// Columns returns one descriptor per column of the table. Hidden columns of
// virtual tables are skipped.
func (e *SQLiteExtractor) Columns(ctx context.Context, schemaName, tableName string) ([]schema.ColumnDescriptor, error) {
	query := `
		SELECT cid, name, type, "notnull", dflt_value, pk, hidden
		FROM pragma_table_xinfo(?, ?)
		ORDER BY cid
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, tableName, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []sqliteColumn
	pkCount := 0
	for rows.Next() {
		var c sqliteColumn
		var notNull int
		var defaultValue sql.NullString

		if err := rows.Scan(&c.cid, &c.name, &c.declaredType, &notNull, &defaultValue, &c.pk, &c.hidden); err != nil {
			return nil, err
		}
		if c.hidden == 1 {
			continue
		}

		c.nullable = notNull == 0
		c.defaultValue = nullString(defaultValue)
		if c.pk > 0 {
			pkCount++
		}
		cols = append(cols, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	columns := make([]schema.ColumnDescriptor, len(cols))
	for i, c := range cols {
		columns[i] = c.descriptor(pkCount == 1)
	}
	return columns, nil
}

// Records reads every row of the table
func (e *SQLiteExtractor) Records(ctx context.Context, schemaName, tableName string, s *schema.TableSchema) ([]*schema.DataRecord, error) {
	query := "SELECT * FROM " + quoteIdent(schemaName, `"`) + "." + quoteIdent(tableName, `"`)

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows, s)
}

// sqliteColumn is one row of PRAGMA table_xinfo
type sqliteColumn struct {
	cid          int
	name         string
	declaredType string
	nullable     bool
	defaultValue *string
	pk           int
	hidden       int
}

// descriptor converts the pragma row. A lone INTEGER PRIMARY KEY is an
// alias for the rowid and is reported as an identity column. Hidden values
// 2 and 3 mark virtual and stored generated columns.
func (c sqliteColumn) descriptor(singlePK bool) schema.ColumnDescriptor {
	base, args := sqliteType(c.declaredType)
	dt := newDataType(base, args)

	d := schema.ColumnDescriptor{
		Name:       c.name,
		BaseType:   dt.BaseType,
		MaxLength:  dt.MaxLength,
		Precision:  dt.Precision,
		Scale:      dt.Scale,
		Ordinal:    c.cid + 1,
		IsNullable: c.nullable,
	}
	if c.pk > 0 {
		d.PkOrdinal = schema.IntPtr(c.pk)
	}

	switch {
	case c.pk > 0 && singlePK && strings.EqualFold(strings.TrimSpace(c.declaredType), "INTEGER"):
		d.IsIdentity = true
		d.IdentitySeed, d.IdentityIncrement = schema.IntPtr(1), schema.IntPtr(1)
		d.IsNullable = false
	case c.hidden == 2:
		d.IsComputed = true
	case c.hidden == 3:
		d.IsComputed, d.IsPersisted = true, true
	case c.defaultValue != nil:
		d.HasDefault, d.DefaultLogic = true, c.defaultValue
	}

	return d
}

// sqliteType maps a declared column type onto a base type following
// SQLite's affinity rules, refined by common type names.
func sqliteType(declared string) (schema.BaseType, typeArgs) {
	upper := strings.ToUpper(strings.TrimSpace(declared))
	mods := parseTypeModifiers(upper)

	var args typeArgs
	if len(mods) > 0 {
		args.length = &mods[0]
		args.precision = &mods[0]
	}
	if len(mods) > 1 {
		args.scale = &mods[1]
	}

	switch {
	case upper == "":
		return schema.TypeVariant, args
	case strings.Contains(upper, "INT"):
		switch {
		case strings.HasPrefix(upper, "TINYINT"):
			return schema.TypeTinyInt, args
		case strings.HasPrefix(upper, "SMALLINT"):
			return schema.TypeSmallInt, args
		case strings.HasPrefix(upper, "INTEGER"), strings.HasPrefix(upper, "BIGINT"):
			return schema.TypeBigInt, args
		default:
			return schema.TypeInt, args
		}
	case strings.Contains(upper, "VARCHAR"):
		return schema.TypeNVarChar, args
	case strings.Contains(upper, "CHAR"):
		return schema.TypeNChar, args
	case strings.Contains(upper, "CLOB"), strings.Contains(upper, "TEXT"), strings.Contains(upper, "JSON"):
		return schema.TypeNVarChar, typeArgs{}
	case strings.Contains(upper, "BLOB"):
		return schema.TypeVarBinary, typeArgs{}
	case strings.Contains(upper, "REAL"), strings.Contains(upper, "FLOA"), strings.Contains(upper, "DOUB"):
		return schema.TypeFloat, args
	case strings.Contains(upper, "BOOL"):
		return schema.TypeBit, args
	case strings.Contains(upper, "DATETIME"), strings.Contains(upper, "TIMESTAMP"):
		return schema.TypeDateTime2, typeArgs{}
	case strings.Contains(upper, "DATE"):
		return schema.TypeDate, args
	case strings.Contains(upper, "TIME"):
		return schema.TypeTime, typeArgs{}
	case strings.Contains(upper, "UUID"), strings.Contains(upper, "GUID"):
		return schema.TypeUniqueIdentifier, args
	default:
		return schema.TypeDecimal, args
	}
}
