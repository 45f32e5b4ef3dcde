package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRoundTrip(t *testing.T) {
	r, err := ParseRecord([]byte(`{"Id": 1, "Name": "Ann", "Notes": null}`))
	require.NoError(t, err)

	s, err := r.JSONString()
	require.NoError(t, err)
	assert.Equal(t, `{"Id":1,"Name":"Ann","Notes":null}`, s)

	again, err := ParseRecord([]byte(s))
	require.NoError(t, err)
	assert.Equal(t, []string{"Id", "Name", "Notes"}, again.Keys())
	assert.True(t, r.Equal(again))

	id, _ := again.Get("Id")
	assert.Equal(t, KindInt, id.Kind())
	n, ok := id.Int()
	assert.True(t, ok)
	assert.Equal(t, int64(1), n)

	notes, ok := again.Get("Notes")
	assert.True(t, ok)
	assert.True(t, notes.IsNull())
}

func TestParseRecordKinds(t *testing.T) {
	r, err := ParseRecord([]byte(`{"b":true,"i":-42,"f":2.5,"whole":3.0,"big":1e300,"s":"x","o":{"a": [1, 2]}}`))
	require.NoError(t, err)

	want := map[string]Kind{
		"b": KindBool, "i": KindInt, "f": KindFloat, "whole": KindFloat,
		"big": KindFloat, "s": KindText, "o": KindStructured,
	}
	for k, kind := range want {
		v, ok := r.Get(k)
		require.True(t, ok, k)
		assert.Equal(t, kind, v.Kind(), k)
	}

	o, _ := r.Get("o")
	raw, _ := o.Structured()
	assert.Equal(t, `{"a":[1,2]}`, string(raw))

	s, err := r.JSONString()
	require.NoError(t, err)
	again, err := ParseRecord([]byte(s))
	require.NoError(t, err)
	assert.True(t, r.Equal(again), s)
}

func TestParseRecordFailures(t *testing.T) {
	for _, input := range []string{
		``,
		`[1,2]`,
		`{"a":`,
		`{"a":1}{"b":2}`,
		`{"a":1,"a":2}`,
		`"text"`,
	} {
		_, err := ParseRecord([]byte(input))
		assert.ErrorIs(t, err, ErrParse, input)
	}
}

func TestRecordMapOperations(t *testing.T) {
	r := NewDataRecord()
	require.NoError(t, r.Add("a", IntValue(1)))
	require.NoError(t, r.Add("b", TextValue("two")))
	assert.ErrorIs(t, r.Add("a", IntValue(3)), ErrDuplicateKey)

	r.Set("a", IntValue(10))
	r.Set("c", Null())
	assert.Equal(t, []string{"a", "b", "c"}, r.Keys())
	assert.Equal(t, 3, r.Len())

	v, ok := r.Get("a")
	require.True(t, ok)
	n, _ := v.Int()
	assert.Equal(t, int64(10), n)

	assert.True(t, r.Remove("b"))
	assert.False(t, r.Remove("b"))
	assert.False(t, r.ContainsKey("b"))
	assert.Equal(t, []string{"a", "c"}, r.Keys())

	var keys []string
	for k := range r.All() {
		keys = append(keys, k)
	}
	assert.Equal(t, []string{"a", "c"}, keys)

	clone := r.Clone()
	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 2, clone.Len())
}

func TestRecordKeyOrderWithNestedValues(t *testing.T) {
	r, err := ParseRecord([]byte(`{"Id":1,"Name":"Ann","Nested":{"a":[1,2]},"Notes":null}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Id", "Name", "Nested", "Notes"}, r.Keys())

	nested, _ := r.Get("Nested")
	raw, ok := nested.Structured()
	require.True(t, ok)
	assert.JSONEq(t, `{"a":[1,2]}`, string(raw))

	out, err := r.JSONString()
	require.NoError(t, err)
	assert.Equal(t, `{"Id":1,"Name":"Ann","Nested":{"a":[1,2]},"Notes":null}`, out)
}

func TestRecordRejectsInvalidUTF8Keys(t *testing.T) {
	r := NewDataRecord()
	assert.ErrorIs(t, r.Add("bad\xffkey", IntValue(1)), ErrValidation)
	assert.Equal(t, 0, r.Len())

	r.Set("bad\xffkey", IntValue(1))
	_, err := r.JSONString()
	assert.ErrorIs(t, err, ErrValidation)
}

func TestZeroValueRecord(t *testing.T) {
	var r DataRecord
	r.Set("x", BoolValue(true))
	assert.Equal(t, 1, r.Len())

	s, err := r.JSONString()
	require.NoError(t, err)
	assert.Equal(t, `{"x":true}`, s)
}

func TestValueJSON(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{name: "null", value: Null(), want: `null`},
		{name: "bool", value: BoolValue(false), want: `false`},
		{name: "int", value: IntValue(7), want: `7`},
		{name: "whole float", value: FloatValue(2), want: `2.0`},
		{name: "float", value: FloatValue(0.25), want: `0.25`},
		{name: "text", value: TextValue(`a"b`), want: `"a\"b"`},
		{name: "binary", value: BinaryValue([]byte{0xde, 0xad}), want: `"3q0="`},
		{name: "datetime", value: DateTimeValue(ts), want: `"2024-03-01T12:30:00Z"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.value.MarshalJSON()
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestValueOf(t *testing.T) {
	ts := time.Now()

	tests := []struct {
		in   any
		want Value
	}{
		{in: nil, want: Null()},
		{in: int32(5), want: IntValue(5)},
		{in: uint16(6), want: IntValue(6)},
		{in: float32(1.5), want: FloatValue(1.5)},
		{in: "s", want: TextValue("s")},
		{in: []byte{1}, want: BinaryValue([]byte{1})},
		{in: ts, want: DateTimeValue(ts)},
		{in: true, want: BoolValue(true)},
		{in: map[string]int{"a": 1}, want: mustStructured(t, `{"a":1}`)},
		{
			in:   [16]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0},
			want: TextValue("12345678-9abc-def0-1234-56789abcdef0"),
		},
	}

	for _, tt := range tests {
		got, err := ValueOf(tt.in)
		require.NoError(t, err)
		assert.True(t, tt.want.Equal(got), "ValueOf(%v) = %v", tt.in, got)
	}
}

func TestValueForColumnDecodesCharacterBytes(t *testing.T) {
	got, err := ValueForColumn(nameColumn(), []byte("Ann"))
	require.NoError(t, err)
	assert.Equal(t, KindText, got.Kind())

	bin := TableColumn{Name: "Blob", DataType: DataType{BaseType: TypeVarBinary, MaxLength: -1}}
	got, err = ValueForColumn(bin, []byte("Ann"))
	require.NoError(t, err)
	assert.Equal(t, KindBinary, got.Kind())
}

func mustStructured(t *testing.T, raw string) Value {
	t.Helper()
	v, err := StructuredValue([]byte(raw))
	require.NoError(t, err)
	return v
}
