package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tordrt/sqlmeta/internal/schema"
)

// SQLiteServer is the server name every SQLite connection reports.
const SQLiteServer = "localhost"

// SQLiteClient manages the connection to SQLite
type SQLiteClient struct {
	identity
	db        *sql.DB
	extractor *SQLiteExtractor
}

// NewSQLiteClient creates a new SQLite client. The database identity is the
// file name without its extension.
func NewSQLiteClient(ctx context.Context, path string, opts Options) (*SQLiteClient, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	c := &SQLiteClient{
		identity: newIdentity(SQLiteServer, SQLiteDatabaseName(path), opts),
		db:       db,
	}
	c.extractor = NewSQLiteExtractor(c)
	return c, nil
}

// SQLiteDatabaseName derives the database identity from a file path.
func SQLiteDatabaseName(path string) string {
	path, _, _ = strings.Cut(path, "?")
	path = strings.TrimPrefix(path, "file:")
	base := filepath.Base(path)
	if name := strings.TrimSuffix(base, filepath.Ext(base)); name != "" {
		return name
	}
	return base
}

// Close closes the database connection
func (c *SQLiteClient) Close(_ context.Context) error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *SQLiteClient) GetDB() *sql.DB {
	return c.db
}

// Tables lists the base tables in schemaName
func (c *SQLiteClient) Tables(ctx context.Context, schemaName string) ([]schema.TableReference, error) {
	names, err := c.extractor.TableNames(ctx, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}
	return c.refs(schemaName, names), nil
}

// TableExists looks the table up in the attached database named by
// ref.Schema, normally "main".
func (c *SQLiteClient) TableExists(ctx context.Context, ref schema.TableReference) (bool, error) {
	if err := c.check(ref); err != nil {
		return false, err
	}
	return c.extractor.TableExists(ctx, ref.Schema, ref.Name)
}

func (c *SQLiteClient) TableSchema(ctx context.Context, ref schema.TableReference) (*schema.TableSchema, error) {
	if err := c.check(ref); err != nil {
		return nil, err
	}
	c.log.Debug().Str("table", ref.QualifiedName()).Msg("reading column metadata")

	rows, err := c.extractor.Columns(ctx, ref.Schema, ref.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns of %s: %w", ref.QualifiedName(), err)
	}
	if len(rows) == 0 {
		return nil, tableNotFound(ref)
	}
	return schema.FromDescriptors(rows)
}

func (c *SQLiteClient) TableRecords(ctx context.Context, ref schema.TableReference) ([]*schema.DataRecord, error) {
	s, err := c.TableSchema(ctx, ref)
	if err != nil {
		return nil, err
	}
	c.log.Debug().Str("table", ref.QualifiedName()).Msg("reading records")

	records, err := c.extractor.Records(ctx, ref.Schema, ref.Name, s)
	if err != nil {
		return nil, fmt.Errorf("failed to read records of %s: %w", ref.QualifiedName(), err)
	}
	return records, nil
}
