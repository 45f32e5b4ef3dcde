package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tordrt/sqlmeta/internal/schema"
)

// PostgresExtractor runs catalog and data queries against PostgreSQL
type PostgresExtractor struct {
	client *PostgresClient
}

// NewPostgresExtractor creates a new PostgreSQL extractor
func NewPostgresExtractor(client *PostgresClient) *PostgresExtractor {
	return &PostgresExtractor{client: client}
}

// TableNames returns the base tables in schemaName
func (e *PostgresExtractor) TableNames(ctx context.Context, schemaName string) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := e.client.GetConnection().Query(ctx, query, schemaName)
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
func (e *PostgresExtractor) TableExists(ctx context.Context, schemaName, tableName string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2 AND table_type = 'BASE TABLE'
		)
	`

	var exists bool
	if err := e.client.GetConnection().QueryRow(ctx, query, schemaName, tableName).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return exists, nil
}

// Columns returns one descriptor per column of the table
func (e *PostgresExtractor) Columns(ctx context.Context, schemaName, tableName string) ([]schema.ColumnDescriptor, error) {
	query := `
		SELECT
			c.column_name::text,
			c.data_type::text,
			c.udt_name::text,
			c.ordinal_position::int,
			c.character_maximum_length::int,
			c.numeric_precision::int,
			c.numeric_scale::int,
			c.datetime_precision::int,
			c.collation_name::text,
			c.is_nullable::text,
			c.column_default::text,
			c.is_identity::text,
			c.identity_start::text,
			c.identity_increment::text,
			c.is_generated::text,
			c.generation_expression::text,
			pk.ordinal_position::int
		FROM information_schema.columns c
		LEFT JOIN (
			SELECT kcu.column_name, kcu.ordinal_position
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON tc.constraint_name = kcu.constraint_name
				AND tc.table_schema = kcu.table_schema
				AND tc.table_name = kcu.table_name
			WHERE tc.table_schema = $1
				AND tc.table_name = $2
				AND tc.constraint_type = 'PRIMARY KEY'
		) pk ON pk.column_name = c.column_name
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`

	rows, err := e.client.GetConnection().Query(ctx, query, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.ColumnDescriptor
	for rows.Next() {
		var r postgresColumn
		var charLen, precision, scale, dtPrecision *int
		var nullable, isIdentity, isGenerated string
		var collation, identityStart, identityIncr *string
		var columnDefault, generationExpr *string

		if err := rows.Scan(
			&r.name, &r.dataType, &r.udtName, &r.ordinal,
			&charLen, &precision, &scale, &dtPrecision,
			&collation, &nullable, &columnDefault,
			&isIdentity, &identityStart, &identityIncr,
			&isGenerated, &generationExpr, &r.pkOrdinal,
		); err != nil {
			return nil, err
		}

		r.args = typeArgs{length: charLen, precision: precision, scale: scale, collation: collation}
		if dtPrecision != nil {
			r.args.scale = dtPrecision
		}
		r.nullable = nullable == "YES"
		r.columnDefault = columnDefault
		r.isIdentity = isIdentity == "YES"
		r.identityStart = identityStart
		r.identityIncrement = identityIncr
		r.isGenerated = isGenerated == "ALWAYS"
		r.generationExpression = generationExpr

		d, err := r.descriptor()
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", r.name, err)
		}
		columns = append(columns, d)
	}

	return columns, rows.Err()
}

// Records reads every row of the table
func (e *PostgresExtractor) Records(ctx context.Context, schemaName, tableName string, s *schema.TableSchema) ([]*schema.DataRecord, error) {
	query := "SELECT * FROM " + pgx.Identifier{schemaName, tableName}.Sanitize()

	rows, err := e.client.GetConnection().Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}

	var records []*schema.DataRecord
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		rec, err := buildRecord(names, values, s)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// postgresColumn is one row of information_schema.columns
type postgresColumn struct {
	name                 string
	dataType             string
	udtName              string
	ordinal              int
	args                 typeArgs
	nullable             bool
	columnDefault        *string
	isIdentity           bool
	identityStart        *string
	identityIncrement    *string
	isGenerated          bool
	generationExpression *string
	pkOrdinal            *int
}

func (r postgresColumn) descriptor() (schema.ColumnDescriptor, error) {
	dt := newDataType(postgresBaseType(r.dataType, r.udtName), r.args)

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

	switch {
	case r.isIdentity:
		seed, err := parseOptionalInt(r.identityStart)
		if err != nil {
			return d, err
		}
		incr, err := parseOptionalInt(r.identityIncrement)
		if err != nil {
			return d, err
		}
		d.IsIdentity, d.IdentitySeed, d.IdentityIncrement = true, seed, incr
	case r.columnDefault != nil && strings.HasPrefix(*r.columnDefault, "nextval("):
		// serial columns are sequence-backed defaults
		d.IsIdentity = true
		d.IdentitySeed, d.IdentityIncrement = schema.IntPtr(1), schema.IntPtr(1)
	case r.columnDefault != nil:
		d.HasDefault, d.DefaultLogic = true, r.columnDefault
	}

	if r.isGenerated {
		// PostgreSQL generated columns are always stored
		d.IsComputed, d.IsPersisted = true, true
		d.ComputedLogic = r.generationExpression
	}

	return d, nil
}

// postgresBaseType maps information_schema data_type names onto base types
func postgresBaseType(dataType, udtName string) schema.BaseType {
	switch dataType {
	case "smallint":
		return schema.TypeSmallInt
	case "integer":
		return schema.TypeInt
	case "bigint":
		return schema.TypeBigInt
	case "numeric":
		return schema.TypeDecimal
	case "real":
		return schema.TypeReal
	case "double precision":
		return schema.TypeFloat
	case "money":
		return schema.TypeMoney
	case "boolean":
		return schema.TypeBit
	case "character varying", "text", "json", "jsonb", "citext":
		return schema.TypeNVarChar
	case "character":
		return schema.TypeNChar
	case "bytea":
		return schema.TypeVarBinary
	case "date":
		return schema.TypeDate
	case "time without time zone", "time with time zone":
		return schema.TypeTime
	case "timestamp without time zone":
		return schema.TypeDateTime2
	case "timestamp with time zone":
		return schema.TypeDateTimeOffset
	case "uuid":
		return schema.TypeUniqueIdentifier
	case "xml":
		return schema.TypeXML
	case "ARRAY", "USER-DEFINED":
		if udtName == "citext" {
			return schema.TypeNVarChar
		}
		return schema.TypeUdt
	default:
		return schema.TypeVariant
	}
}
