package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDescriptors(t *testing.T) {
	rows := []ColumnDescriptor{
		{Name: "email", BaseType: TypeNVarChar, MaxLength: 255, Ordinal: 3, IsNullable: true},
		{
			Name: "id", BaseType: TypeInt, MaxLength: 4, Precision: 10, Ordinal: 1, PkOrdinal: IntPtr(1),
			IsIdentity: true, IdentitySeed: IntPtr(1), IdentityIncrement: IntPtr(1),
		},
		{Name: "created_at", BaseType: TypeDateTime2, Ordinal: 2, HasDefault: true, DefaultLogic: StrPtr("now()")},
	}

	s, err := FromDescriptors(rows)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "created_at", "email"}, s.Names())
	assert.Equal(t, []string{"id"}, s.PkColumnNames())
	assertPositions(t, s)

	created, err := s.Column("created_at")
	require.NoError(t, err)
	assert.True(t, created.HasDefault)
	assert.Equal(t, "now()", *created.DefaultLogic)
}

func TestFromDescriptorsRejectsInvalidRow(t *testing.T) {
	_, err := FromDescriptors([]ColumnDescriptor{
		{Name: "x", BaseType: TypeInt, IdentitySeed: IntPtr(1)},
	})
	assert.ErrorIs(t, err, ErrValidation)
}
