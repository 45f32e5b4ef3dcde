package schema

// NewRecord returns a record template for inserting into a table with
// schema s: one null entry per column, in column order, leaving out identity
// and computed columns since the engine fills those itself.
func NewRecord(s *TableSchema) *DataRecord {
	r := NewDataRecord()
	for _, c := range s.columns {
		if c.Editable() {
			r.Set(c.Name, Null())
		}
	}
	return r
}

// UpdateRecord returns the template for an update against s. It is the
// same null template as NewRecord; existing is not merged in.
func UpdateRecord(s *TableSchema, _ *DataRecord) *DataRecord {
	return NewRecord(s)
}
