package schema

import (
	"fmt"
	"sort"
)

// ColumnDescriptor is one flat row of column metadata as a catalog query
// returns it. Connections fill these in and hand them to FromDescriptors.
type ColumnDescriptor struct {
	Name              string
	BaseType          BaseType
	MaxLength         int
	Precision         int
	Scale             int
	Collation         *string
	Ordinal           int
	PkOrdinal         *int
	IsNullable        bool
	IsIdentity        bool
	IdentitySeed      *int
	IdentityIncrement *int
	IsComputed        bool
	IsPersisted       bool
	ComputedLogic     *string
	HasDefault        bool
	DefaultLogic      *string
}

// Column converts the descriptor into a TableColumn.
func (d ColumnDescriptor) Column() TableColumn {
	return TableColumn{
		Name: d.Name,
		DataType: DataType{
			BaseType:  d.BaseType,
			MaxLength: d.MaxLength,
			Precision: d.Precision,
			Scale:     d.Scale,
			Collation: d.Collation,
		},
		Position:          IntPtr(d.Ordinal),
		PkPosition:        d.PkOrdinal,
		IsNullable:        d.IsNullable,
		IsIdentity:        d.IsIdentity,
		IdentitySeed:      d.IdentitySeed,
		IdentityIncrement: d.IdentityIncrement,
		IsComputed:        d.IsComputed,
		IsPersisted:       d.IsPersisted,
		ComputedLogic:     d.ComputedLogic,
		HasDefault:        d.HasDefault,
		DefaultLogic:      d.DefaultLogic,
	}
}

// FromDescriptors builds a schema from catalog rows, ordered by their
// catalog ordinal.
func FromDescriptors(rows []ColumnDescriptor) (*TableSchema, error) {
	sorted := make([]ColumnDescriptor, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Ordinal < sorted[j].Ordinal
	})

	columns := make([]TableColumn, len(sorted))
	for i, d := range sorted {
		columns[i] = d.Column()
	}

	s, err := CreateFrom(columns)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble schema: %w", err)
	}
	return s, nil
}
