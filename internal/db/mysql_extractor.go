package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tordrt/sqlmeta/internal/schema"
)

// MySQLExtractor runs catalog and data queries against MySQL
type MySQLExtractor struct {
	client *MySQLClient
}

// NewMySQLExtractor creates a new MySQL extractor
func NewMySQLExtractor(client *MySQLClient) *MySQLExtractor {
	return &MySQLExtractor{client: client}
}

// TableNames returns the base tables in schemaName
func (e *MySQLExtractor) TableNames(ctx context.Context, schemaName string) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, schemaName)
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

// TableExists reports whether a base table with the given name exists
func (e *MySQLExtractor) TableExists(ctx context.Context, schemaName, tableName string) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = ? AND table_name = ? AND table_type = 'BASE TABLE'
	`

	var n int
	if err := e.client.GetDB().QueryRowContext(ctx, query, schemaName, tableName).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return n > 0, nil
}

// Columns returns one descriptor per column of the table
func (e *MySQLExtractor) Columns(ctx context.Context, schemaName, tableName string) ([]schema.ColumnDescriptor, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.column_type,
			c.ordinal_position,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale,
			c.datetime_precision,
			c.collation_name,
			c.is_nullable,
			c.column_default,
			c.extra,
			c.generation_expression,
			k.ordinal_position
		FROM information_schema.columns c
		LEFT JOIN information_schema.key_column_usage k
			ON k.table_schema = c.table_schema
			AND k.table_name = c.table_name
			AND k.column_name = c.column_name
			AND k.constraint_name = 'PRIMARY'
		WHERE c.table_schema = ? AND c.table_name = ?
		ORDER BY c.ordinal_position
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.ColumnDescriptor
	for rows.Next() {
		var r mysqlColumn
		var charLen, precision, scale, dtPrecision, pkOrdinal sql.NullInt64
		var collation, columnDefault, generationExpr sql.NullString
		var nullable string

		if err := rows.Scan(
			&r.name, &r.dataType, &r.columnType, &r.ordinal,
			&charLen, &precision, &scale, &dtPrecision,
			&collation, &nullable, &columnDefault,
			&r.extra, &generationExpr, &pkOrdinal,
		); err != nil {
			return nil, err
		}

		r.args = typeArgs{
			length:    nullInt(charLen),
			precision: nullInt(precision),
			scale:     nullInt(scale),
			collation: nullString(collation),
		}
		if dtPrecision.Valid {
			r.args.scale = nullInt(dtPrecision)
		}
		r.nullable = nullable == "YES"
		r.columnDefault = nullString(columnDefault)
		r.generationExpression = nullString(generationExpr)
		r.pkOrdinal = nullInt(pkOrdinal)

		columns = append(columns, r.descriptor())
	}

	return columns, rows.Err()
}

// Records reads every row of the table
func (e *MySQLExtractor) Records(ctx context.Context, schemaName, tableName string, s *schema.TableSchema) ([]*schema.DataRecord, error) {
	query := "SELECT * FROM " + quoteIdent(schemaName, "`") + "." + quoteIdent(tableName, "`")

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows, s)
}

// mysqlColumn is one row of information_schema.columns
type mysqlColumn struct {
	name                 string
	dataType             string
	columnType           string
	ordinal              int
	args                 typeArgs
	nullable             bool
	columnDefault        *string
	extra                string
	generationExpression *string
	pkOrdinal            *int
}

func (r mysqlColumn) descriptor() schema.ColumnDescriptor {
	dt := newDataType(mysqlBaseType(r.dataType, r.columnType), r.args)
	if dt.BaseType == schema.TypeBit {
		dt.MaxLength, dt.Precision, dt.Scale = 1, 1, 0
	}

	d := schema.ColumnDescriptor{
		Name:       r.name,
		BaseType:   dt.BaseType,
		MaxLength:  dt.MaxLength,
		Precision:  dt.Precision,
		Scale:      dt.Scale,
		Collation:  dt.Collation,
		Ordinal:    r.ordinal,
		PkOrdinal:  r.pkOrdinal,
		IsNullable: r.nullable,
	}

	extra := strings.ToUpper(r.extra)
	switch {
	case strings.Contains(extra, "AUTO_INCREMENT"):
		d.IsIdentity = true
		d.IdentitySeed, d.IdentityIncrement = schema.IntPtr(1), schema.IntPtr(1)
	case strings.Contains(extra, "VIRTUAL GENERATED"):
		d.IsComputed = true
		d.ComputedLogic = r.generationExpression
	case strings.Contains(extra, "STORED GENERATED"):
		d.IsComputed, d.IsPersisted = true, true
		d.ComputedLogic = r.generationExpression
	case r.columnDefault != nil:
		d.HasDefault, d.DefaultLogic = true, r.columnDefault
	}

	return d
}

// mysqlBaseType maps information_schema data_type names onto base types.
// tinyint(1) is treated as a boolean.
func mysqlBaseType(dataType, columnType string) schema.BaseType {
	switch strings.ToLower(dataType) {
	case "tinyint":
		if strings.HasPrefix(strings.ToLower(columnType), "tinyint(1)") {
			return schema.TypeBit
		}
		return schema.TypeTinyInt
	case "bit", "bool", "boolean":
		return schema.TypeBit
	case "smallint", "year":
		return schema.TypeSmallInt
	case "mediumint", "int", "integer":
		return schema.TypeInt
	case "bigint":
		return schema.TypeBigInt
	case "decimal", "numeric":
		return schema.TypeDecimal
	case "float":
		return schema.TypeReal
	case "double", "real":
		return schema.TypeFloat
	case "char":
		return schema.TypeNChar
	case "varchar", "enum", "set":
		return schema.TypeNVarChar
	case "tinytext", "text", "mediumtext", "longtext", "json":
		return schema.TypeNText
	case "binary":
		return schema.TypeBinary
	case "varbinary":
		return schema.TypeVarBinary
	case "tinyblob", "blob", "mediumblob", "longblob":
		return schema.TypeImage
	case "date":
		return schema.TypeDate
	case "time":
		return schema.TypeTime
	case "datetime", "timestamp":
		return schema.TypeDateTime2
	case "geometry", "point", "linestring", "polygon", "multipoint",
		"multilinestring", "multipolygon", "geometrycollection":
		return schema.TypeUdt
	default:
		return schema.TypeVariant
	}
}

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
