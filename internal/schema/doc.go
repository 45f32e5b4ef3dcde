// Package schema models relational table metadata and generic rows: table
// references, column types, columns, the ordered column set of a table and
// untyped data records, all with a JSON interchange form.
package schema
