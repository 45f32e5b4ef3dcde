package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/tordrt/sqlmeta/internal/schema"
)

// MySQLClient manages the connection to MySQL
type MySQLClient struct {
	identity
	db        *sql.DB
	extractor *MySQLExtractor
}

// NewMySQLClient creates a new MySQL client from a go-sql-driver DSN. The
// DSN's address and database name become the connection identity.
func NewMySQLClient(ctx context.Context, connString string, opts Options) (*MySQLClient, error) {
	cfg, err := mysql.ParseDSN(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg.DBName == "" {
		return nil, fmt.Errorf("connection string must name a database")
	}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewMySQLClientFromDB(db, cfg.Addr, cfg.DBName, opts), nil
}

// NewMySQLClientFromDB wraps an already open handle.
func NewMySQLClientFromDB(db *sql.DB, server, database string, opts Options) *MySQLClient {
	c := &MySQLClient{
		identity: newIdentity(server, database, opts),
		db:       db,
	}
	c.extractor = NewMySQLExtractor(c)
	return c
}

// Close closes the database connection
func (c *MySQLClient) Close(_ context.Context) error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *MySQLClient) GetDB() *sql.DB {
	return c.db
}

// Tables lists the base tables in schemaName
func (c *MySQLClient) Tables(ctx context.Context, schemaName string) ([]schema.TableReference, error) {
	names, err := c.extractor.TableNames(ctx, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}
	return c.refs(schemaName, names), nil
}

// TableExists looks the table up in ref.Schema, which on MySQL names a
// database on the same server.
func (c *MySQLClient) TableExists(ctx context.Context, ref schema.TableReference) (bool, error) {
	if err := c.check(ref); err != nil {
		return false, err
	}
	return c.extractor.TableExists(ctx, ref.Schema, ref.Name)
}

func (c *MySQLClient) TableSchema(ctx context.Context, ref schema.TableReference) (*schema.TableSchema, error) {
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

func (c *MySQLClient) TableRecords(ctx context.Context, ref schema.TableReference) ([]*schema.DataRecord, error) {
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
