package schema

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindText
	KindBinary
	KindDateTime
	KindStructured
)

var kindNames = [...]string{
	KindNull:       "null",
	KindBool:       "bool",
	KindInt:        "int",
	KindFloat:      "float",
	KindText:       "text",
	KindBinary:     "binary",
	KindDateTime:   "datetime",
	KindStructured: "structured",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is one cell of a DataRecord. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	bin  []byte
	t    time.Time
	raw  []byte
}

func Null() Value { return Value{} }
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }
func TextValue(s string) Value { return Value{kind: KindText, s: s} }
func DateTimeValue(t time.Time) Value { return Value{kind: KindDateTime, t: t} }
func BinaryValue(b []byte) Value { return Value{kind: KindBinary, bin: bytes.Clone(b)} }

// StructuredValue wraps a nested JSON object or array.
func StructuredValue(raw []byte) (Value, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return Value{}, fmt.Errorf("%w: structured value: %v", ErrParse, err)
	}
	return Value{kind: KindStructured, raw: buf.Bytes()}, nil
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInt }
func (v Value) Float() (float64, bool) { return v.f, v.kind == KindFloat }
func (v Value) Text() (string, bool) { return v.s, v.kind == KindText }
func (v Value) Binary() ([]byte, bool) { return bytes.Clone(v.bin), v.kind == KindBinary }
func (v Value) DateTime() (time.Time, bool) { return v.t, v.kind == KindDateTime }

// Structured returns the compact JSON of a nested value.
func (v Value) Structured() ([]byte, bool) {
	return bytes.Clone(v.raw), v.kind == KindStructured
}

// Any returns the payload as a plain Go value; structured values come back
// as json.RawMessage.
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindText:
		return v.s
	case KindBinary:
		return bytes.Clone(v.bin)
	case KindDateTime:
		return v.t
	case KindStructured:
		return json.RawMessage(bytes.Clone(v.raw))
	default:
		return nil
	}
}

func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindText:
		return v.s == other.s
	case KindBinary:
		return bytes.Equal(v.bin, other.bin)
	case KindDateTime:
		return v.t.Equal(other.t)
	case KindStructured:
		return bytes.Equal(v.raw, other.raw)
	}
	return false
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindBinary:
		return "0x" + fmt.Sprintf("%X", v.bin)
	case KindDateTime:
		return v.t.Format(time.RFC3339Nano)
	case KindStructured:
		return string(v.raw)
	default:
		return fmt.Sprint(v.Any())
	}
}

// MarshalJSON writes binary values as base64 text and date-times as
// RFC 3339 text. Floats always carry a fraction or exponent so they decode
// back as floats.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return strconv.AppendInt(nil, v.i, 10), nil
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return nil, fmt.Errorf("%w: %v has no JSON form", ErrParse, v.f)
		}
		b, err := json.Marshal(v.f)
		if err != nil {
			return nil, err
		}
		if !bytes.ContainsAny(b, ".eE") {
			b = append(b, ".0"...)
		}
		return b, nil
	case KindText:
		return json.Marshal(v.s)
	case KindBinary:
		return json.Marshal(base64.StdEncoding.EncodeToString(v.bin))
	case KindDateTime:
		return json.Marshal(v.t.Format(time.RFC3339Nano))
	case KindStructured:
		return bytes.Clone(v.raw), nil
	}
	return nil, fmt.Errorf("unknown value kind %s", v.kind)
}

// UnmarshalJSON maps a JSON value onto the matching kind. Integral numbers
// become KindInt, other numbers KindFloat, objects and arrays
// KindStructured.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := valueFromJSON(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func valueFromJSON(data []byte) (Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Value{}, fmt.Errorf("%w: empty value", ErrParse)
	}

	switch data[0] {
	case 'n':
		if string(data) != "null" {
			return Value{}, fmt.Errorf("%w: invalid literal %s", ErrParse, data)
		}
		return Null(), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrParse, err)
		}
		return BoolValue(b), nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrParse, err)
		}
		return TextValue(s), nil
	case '{', '[':
		return StructuredValue(data)
	default:
		return numberValue(string(data))
	}
}

func numberValue(s string) (Value, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntValue(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("%w: invalid number %q", ErrParse, s)
	}
	return FloatValue(f), nil
}

// ValueOf converts a value produced by a database driver into a Value.
// Types with no direct variant are stored as their JSON encoding.
func ValueOf(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return BoolValue(t), nil
	case int:
		return IntValue(int64(t)), nil
	case int8:
		return IntValue(int64(t)), nil
	case int16:
		return IntValue(int64(t)), nil
	case int32:
		return IntValue(int64(t)), nil
	case int64:
		return IntValue(t), nil
	case uint8:
		return IntValue(int64(t)), nil
	case uint16:
		return IntValue(int64(t)), nil
	case uint32:
		return IntValue(int64(t)), nil
	case uint64:
		if t > math.MaxInt64 {
			return FloatValue(float64(t)), nil
		}
		return IntValue(int64(t)), nil
	case float32:
		return FloatValue(float64(t)), nil
	case float64:
		return FloatValue(t), nil
	case string:
		return TextValue(t), nil
	case []byte:
		return BinaryValue(t), nil
	case time.Time:
		return DateTimeValue(t), nil
	case [16]byte:
		return TextValue(fmt.Sprintf("%x-%x-%x-%x-%x", t[0:4], t[4:6], t[6:8], t[8:10], t[10:16])), nil
	case json.RawMessage:
		return valueFromJSON(t)
	case fmt.Stringer:
		return TextValue(t.String()), nil
	}

	b, err := json.Marshal(x)
	if err != nil {
		return Value{}, fmt.Errorf("%w: cannot convert %T: %v", ErrParse, x, err)
	}
	return valueFromJSON(b)
}

// ValueForColumn converts a driver value read from column c. Drivers that
// hand back raw bytes for character data get those bytes decoded as text.
func ValueForColumn(c TableColumn, x any) (Value, error) {
	if raw, ok := x.([]byte); ok && c.DataType.BaseType.decodesAsText() {
		return TextValue(string(raw)), nil
	}
	return ValueOf(x)
}
