package db

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/tordrt/sqlmeta/internal/schema"
)

// PostgresClient manages the connection to PostgreSQL
type PostgresClient struct {
	identity
	conn      *pgx.Conn
	extractor *PostgresExtractor
}

// NewPostgresClient creates a new PostgreSQL client. The server identity is
// host:port and the database is the one named in connString.
func NewPostgresClient(ctx context.Context, connString string, opts Options) (*PostgresClient, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	cfg := conn.Config()
	server := net.JoinHostPort(cfg.Host, strconv.Itoa(int(cfg.Port)))

	c := &PostgresClient{
		identity: newIdentity(server, cfg.Database, opts),
		conn:     conn,
	}
	c.extractor = NewPostgresExtractor(c)
	return c, nil
}

// Close closes the database connection
func (c *PostgresClient) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

// GetConnection returns the underlying connection
func (c *PostgresClient) GetConnection() *pgx.Conn {
	return c.conn
}

// Tables lists the base tables in schemaName
func (c *PostgresClient) Tables(ctx context.Context, schemaName string) ([]schema.TableReference, error) {
	names, err := c.extractor.TableNames(ctx, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}
	return c.refs(schemaName, names), nil
}

func (c *PostgresClient) TableExists(ctx context.Context, ref schema.TableReference) (bool, error) {
	if err := c.check(ref); err != nil {
		return false, err
	}
	return c.extractor.TableExists(ctx, ref.Schema, ref.Name)
}

func (c *PostgresClient) TableSchema(ctx context.Context, ref schema.TableReference) (*schema.TableSchema, error) {
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

func (c *PostgresClient) TableRecords(ctx context.Context, ref schema.TableReference) ([]*schema.DataRecord, error) {
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
