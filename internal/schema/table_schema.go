package schema

import (
	"fmt"
	"iter"
	"slices"
	"sort"

	"github.com/goccy/go-json"
)

// TableSchema is the ordered, uniquely named column set of a table.
//
// The column slice is authoritative. The name index and the primary key
// ordering are derived from it and rebuilt after every mutation, together
// with each column's Position. A mutation computes the new state first and
// only installs it when every invariant holds, so a failed call leaves the
// schema untouched.
//
// A TableSchema does no locking of its own.
type TableSchema struct {
	columns []TableColumn
	index   map[string]int
	pkNames []string
}

// derived is the complete state of a schema, built off to the side before
// being swapped in.
type derived struct {
	columns []TableColumn
	index   map[string]int
	pkNames []string
}

// CreateFrom builds a schema from columns. The columns are copied and their
// Position fields renumbered to match their index.
func CreateFrom(columns []TableColumn) (*TableSchema, error) {
	cols := make([]TableColumn, len(columns))
	for i, c := range columns {
		cols[i] = c.clone()
	}

	d, err := derive(cols)
	if err != nil {
		return nil, err
	}

	s := &TableSchema{}
	s.install(d)
	return s, nil
}

// ParseSchema decodes a JSON array of columns and builds a schema from it.
func ParseSchema(data []byte) (*TableSchema, error) {
	var columns []TableColumn
	if err := json.Unmarshal(data, &columns); err != nil {
		return nil, fmt.Errorf("%w: table schema: %v", ErrParse, err)
	}
	return CreateFrom(columns)
}

// derive renumbers cols in place and computes the name index and primary
// key order. cols must already be owned by the caller.
func derive(cols []TableColumn) (derived, error) {
	index := make(map[string]int, len(cols))
	pkOwner := make(map[int]string)
	var pkCols []TableColumn

	for i := range cols {
		c := &cols[i]
		if err := c.Validate(); err != nil {
			return derived{}, err
		}
		if _, exists := index[c.Name]; exists {
			return derived{}, fmt.Errorf("%w: column %q appears more than once", ErrDuplicateKey, c.Name)
		}
		index[c.Name] = i
		c.Position = IntPtr(i)

		if c.PkPosition != nil {
			if other, taken := pkOwner[*c.PkPosition]; taken {
				return derived{}, fmt.Errorf("%w: columns %q and %q share primary key position %d",
					ErrValidation, other, c.Name, *c.PkPosition)
			}
			pkOwner[*c.PkPosition] = c.Name
			pkCols = append(pkCols, *c)
		}
	}

	sort.Slice(pkCols, func(i, j int) bool {
		return *pkCols[i].PkPosition < *pkCols[j].PkPosition
	})
	pkNames := make([]string, len(pkCols))
	for i, c := range pkCols {
		pkNames[i] = c.Name
	}

	return derived{columns: cols, index: index, pkNames: pkNames}, nil
}

func (s *TableSchema) install(d derived) {
	s.columns = d.columns
	s.index = d.index
	s.pkNames = d.pkNames
}

// apply derives state from cols and installs it on success.
func (s *TableSchema) apply(cols []TableColumn) error {
	d, err := derive(cols)
	if err != nil {
		return err
	}
	s.install(d)
	return nil
}

// Len returns the number of columns.
func (s *TableSchema) Len() int {
	return len(s.columns)
}

// Columns returns a copy of the columns in order.
func (s *TableSchema) Columns() []TableColumn {
	out := make([]TableColumn, len(s.columns))
	for i, c := range s.columns {
		out[i] = c.clone()
	}
	return out
}

// Names returns the column names in order.
func (s *TableSchema) Names() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}

// PkColumnNames returns the primary key column names ordered by their
// primary key position.
func (s *TableSchema) PkColumnNames() []string {
	return slices.Clone(s.pkNames)
}

// EditableColumns returns the columns that are neither identity nor computed.
func (s *TableSchema) EditableColumns() []TableColumn {
	var out []TableColumn
	for _, c := range s.columns {
		if c.Editable() {
			out = append(out, c.clone())
		}
	}
	return out
}

// Column returns the column called name.
func (s *TableSchema) Column(name string) (TableColumn, error) {
	i, ok := s.index[name]
	if !ok {
		return TableColumn{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return s.columns[i].clone(), nil
}

// ColumnAt returns the column at index i.
func (s *TableSchema) ColumnAt(i int) (TableColumn, error) {
	if i < 0 || i >= len(s.columns) {
		return TableColumn{}, fmt.Errorf("%w: column index %d, schema has %d columns", ErrOutOfRange, i, len(s.columns))
	}
	return s.columns[i].clone(), nil
}

// Lookup returns the column called name and whether it exists.
func (s *TableSchema) Lookup(name string) (TableColumn, bool) {
	i, ok := s.index[name]
	if !ok {
		return TableColumn{}, false
	}
	return s.columns[i].clone(), true
}

// ContainsKey reports whether a column called name exists.
func (s *TableSchema) ContainsKey(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Contains reports whether the schema holds a column equal to c, Position
// aside.
func (s *TableSchema) Contains(c TableColumn) bool {
	i, ok := s.index[c.Name]
	return ok && s.columns[i].equalIgnoringPosition(c)
}

// IndexOf returns the index of the column called name, or -1.
func (s *TableSchema) IndexOf(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Upsert replaces the column with c's name in place, or appends c when no
// such column exists.
func (s *TableSchema) Upsert(c TableColumn) error {
	cols := s.cloneColumns()
	if i, ok := s.index[c.Name]; ok {
		cols[i] = c.clone()
	} else {
		cols = append(cols, c.clone())
	}
	return s.apply(cols)
}

// SetAt replaces the column at index i. c may not take the name of a
// different column.
func (s *TableSchema) SetAt(i int, c TableColumn) error {
	if i < 0 || i >= len(s.columns) {
		return fmt.Errorf("%w: column index %d, schema has %d columns", ErrOutOfRange, i, len(s.columns))
	}
	if j, ok := s.index[c.Name]; ok && j != i {
		return fmt.Errorf("%w: column %q already exists at index %d", ErrDuplicateKey, c.Name, j)
	}
	cols := s.cloneColumns()
	cols[i] = c.clone()
	return s.apply(cols)
}

// Insert splices c in at index i, shifting later columns up. key must equal
// c.Name and must not already be present. i may equal Len to append.
func (s *TableSchema) Insert(i int, key string, c TableColumn) error {
	if key != c.Name {
		return fmt.Errorf("%w: key %q, column %q", ErrKeyMismatch, key, c.Name)
	}
	if _, ok := s.index[key]; ok {
		return fmt.Errorf("%w: column %q already exists in schema", ErrDuplicateKey, key)
	}
	if i < 0 || i > len(s.columns) {
		return fmt.Errorf("%w: insert index %d, schema has %d columns", ErrOutOfRange, i, len(s.columns))
	}
	cols := s.cloneColumns()
	cols = slices.Insert(cols, i, c.clone())
	return s.apply(cols)
}

// Remove deletes the column called name and reports whether it existed.
func (s *TableSchema) Remove(name string) bool {
	i, ok := s.index[name]
	if !ok {
		return false
	}
	return s.RemoveAt(i) == nil
}

// RemoveAt deletes the column at index i.
func (s *TableSchema) RemoveAt(i int) error {
	if i < 0 || i >= len(s.columns) {
		return fmt.Errorf("%w: column index %d, schema has %d columns", ErrOutOfRange, i, len(s.columns))
	}
	cols := s.cloneColumns()
	cols = slices.Delete(cols, i, i+1)
	return s.apply(cols)
}

// Clear removes every column.
func (s *TableSchema) Clear() {
	s.install(derived{index: map[string]int{}, pkNames: []string{}})
}

// All yields (name, column) pairs in column order.
func (s *TableSchema) All() iter.Seq2[string, TableColumn] {
	return func(yield func(string, TableColumn) bool) {
		for _, c := range s.columns {
			if !yield(c.Name, c.clone()) {
				return
			}
		}
	}
}

// Equal reports whether both schemas hold the same columns by name. Column
// order, and therefore Position, does not take part in the comparison.
func (s *TableSchema) Equal(other *TableSchema) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.columns) != len(other.columns) {
		return false
	}
	for _, c := range s.columns {
		j, ok := other.index[c.Name]
		if !ok || !c.equalIgnoringPosition(other.columns[j]) {
			return false
		}
	}
	return true
}

// Hash is consistent with Equal: it ignores Position and column order.
func (s *TableSchema) Hash() uint64 {
	var sum uint64
	for _, c := range s.columns {
		h := newHasher()
		c.hashInto(h)
		sum += h.sum()
	}
	return sum
}

// MarshalJSON writes the columns as a JSON array.
func (s *TableSchema) MarshalJSON() ([]byte, error) {
	if s.columns == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.columns)
}

// UnmarshalJSON replaces the schema with the decoded column array.
func (s *TableSchema) UnmarshalJSON(data []byte) error {
	parsed, err := ParseSchema(data)
	if err != nil {
		return err
	}
	*s = *parsed
	return nil
}

// JSONString returns the JSON array form of s.
func (s *TableSchema) JSONString() (string, error) {
	b, err := s.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *TableSchema) cloneColumns() []TableColumn {
	cols := make([]TableColumn, len(s.columns), len(s.columns)+1)
	for i, c := range s.columns {
		cols[i] = c.clone()
	}
	return cols
}
