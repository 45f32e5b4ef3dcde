package schema

import (
	"fmt"

	"github.com/goccy/go-json"
)

// DataType describes the physical type of a column.
type DataType struct {
	BaseType  BaseType `json:"SqlDbType"`
	MaxLength int      `json:"MaxLength"`
	Precision int      `json:"Precision"`
	Scale     int      `json:"Scale"`
	Collation *string  `json:"Collation"`
}

// rawDataType mirrors DataType with pointer fields so absent members can be
// told apart from zero values.
type rawDataType struct {
	BaseType  *BaseType `json:"SqlDbType"`
	MaxLength *int      `json:"MaxLength"`
	Precision *int      `json:"Precision"`
	Scale     *int      `json:"Scale"`
	Collation *string   `json:"Collation"`
}

// ParseDataType decodes a DataType from its JSON form.
func ParseDataType(data []byte) (DataType, error) {
	var t DataType
	if err := t.UnmarshalJSON(data); err != nil {
		return DataType{}, err
	}
	return t, nil
}

// UnmarshalJSON requires the type tag and all three numeric members.
func (t *DataType) UnmarshalJSON(data []byte) error {
	var raw rawDataType
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: data type: %v", ErrParse, err)
	}

	switch {
	case raw.BaseType == nil:
		return fmt.Errorf("%w: data type: SqlDbType is required", ErrParse)
	case raw.MaxLength == nil:
		return fmt.Errorf("%w: data type: MaxLength is required", ErrParse)
	case raw.Precision == nil:
		return fmt.Errorf("%w: data type: Precision is required", ErrParse)
	case raw.Scale == nil:
		return fmt.Errorf("%w: data type: Scale is required", ErrParse)
	}

	*t = DataType{
		BaseType:  *raw.BaseType,
		MaxLength: *raw.MaxLength,
		Precision: *raw.Precision,
		Scale:     *raw.Scale,
		Collation: raw.Collation,
	}
	return nil
}

func (t DataType) Equal(other DataType) bool {
	return t.BaseType == other.BaseType &&
		t.MaxLength == other.MaxLength &&
		t.Precision == other.Precision &&
		t.Scale == other.Scale &&
		equalStrPtr(t.Collation, other.Collation)
}

func (t DataType) Hash() uint64 {
	h := newHasher()
	t.hashInto(h)
	return h.sum()
}

func (t DataType) hashInto(h *hasher) {
	h.int(int64(t.BaseType))
	h.int(int64(t.MaxLength))
	h.int(int64(t.Precision))
	h.int(int64(t.Scale))
	h.optStr(t.Collation)
}

// JSONString returns the JSON form of t.
func (t DataType) JSONString() (string, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (t DataType) String() string {
	switch t.BaseType {
	case TypeChar, TypeVarChar, TypeNChar, TypeNVarChar, TypeBinary, TypeVarBinary:
		if t.MaxLength < 0 {
			return fmt.Sprintf("%s(max)", t.BaseType)
		}
		return fmt.Sprintf("%s(%d)", t.BaseType, t.MaxLength)
	case TypeDecimal:
		return fmt.Sprintf("%s(%d,%d)", t.BaseType, t.Precision, t.Scale)
	default:
		return t.BaseType.String()
	}
}

func equalStrPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
