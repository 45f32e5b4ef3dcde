package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tordrt/sqlmeta/internal/schema"
)

// Connection reads table metadata and rows from one server and database.
// Every method that takes a TableReference rejects references that point
// elsewhere before touching the database.
type Connection interface {
	Server() string
	Database() string
	Tables(ctx context.Context, schemaName string) ([]schema.TableReference, error)
	TableExists(ctx context.Context, ref schema.TableReference) (bool, error)
	TableSchema(ctx context.Context, ref schema.TableReference) (*schema.TableSchema, error)
	TableRecords(ctx context.Context, ref schema.TableReference) ([]*schema.DataRecord, error)
	CreateRecord(ctx context.Context, ref schema.TableReference, rec *schema.DataRecord) error
	UpdateRecord(ctx context.Context, ref schema.TableReference, rec *schema.DataRecord) error
	DeleteRecord(ctx context.Context, ref schema.TableReference, rec *schema.DataRecord) error
	Close(ctx context.Context) error
}

var (
	_ Connection = (*PostgresClient)(nil)
	_ Connection = (*MySQLClient)(nil)
	_ Connection = (*SQLiteClient)(nil)
)

// Options configures a connection.
type Options struct {
	Logger zerolog.Logger
}

// identity is the server/database pair a connection is bound to. It is
// embedded by every dialect connection.
type identity struct {
	server   string
	database string
	log      zerolog.Logger
}

func newIdentity(server, database string, opts Options) identity {
	return identity{
		server:   server,
		database: database,
		log: opts.Logger.With().
			Str("server", server).
			Str("database", database).
			Logger(),
	}
}

func (i identity) Server() string   { return i.server }
func (i identity) Database() string { return i.database }

// check validates ref and makes sure it belongs to this connection.
func (i identity) check(ref schema.TableReference) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	return schema.MatchConnection(ref, i.server, i.database)
}

// refs turns table names in schemaName into references on this connection.
func (i identity) refs(schemaName string, names []string) []schema.TableReference {
	refs := make([]schema.TableReference, len(names))
	for n, name := range names {
		refs[n] = schema.TableReference{Server: i.server, Database: i.database, Schema: schemaName, Name: name}
	}
	return refs
}

func (i identity) CreateRecord(_ context.Context, ref schema.TableReference, _ *schema.DataRecord) error {
	return i.unsupported("create record", ref)
}

func (i identity) UpdateRecord(_ context.Context, ref schema.TableReference, _ *schema.DataRecord) error {
	return i.unsupported("update record", ref)
}

func (i identity) DeleteRecord(_ context.Context, ref schema.TableReference, _ *schema.DataRecord) error {
	return i.unsupported("delete record", ref)
}

func (i identity) unsupported(op string, ref schema.TableReference) error {
	if err := i.check(ref); err != nil {
		return err
	}
	return fmt.Errorf("failed to %s in %s: %w", op, ref.QualifiedName(), schema.ErrNotImplemented)
}

// scanRecords reads every row of rows into a record keyed by column name.
// Driver values are converted using the matching schema column when there
// is one.
func scanRecords(rows *sql.Rows, s *schema.TableSchema) ([]*schema.DataRecord, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	var records []*schema.DataRecord
	for rows.Next() {
		raw := make([]any, len(names))
		dest := make([]any, len(names))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		rec, err := buildRecord(names, raw, s)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func buildRecord(names []string, raw []any, s *schema.TableSchema) (*schema.DataRecord, error) {
	rec := schema.NewDataRecord()
	for i, name := range names {
		var (
			v   schema.Value
			err error
		)
		if col, ok := s.Lookup(name); ok {
			v, err = schema.ValueForColumn(col, raw[i])
		} else {
			v, err = schema.ValueOf(raw[i])
		}
		if err != nil {
			return nil, fmt.Errorf("failed to convert column %s: %w", name, err)
		}
		rec.Set(name, v)
	}
	return rec, nil
}
