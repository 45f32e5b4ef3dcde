package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// BaseType is the storage engine's physical type tag for a column. The
// numeric values follow the SqlDbType enumeration so tags written as numbers
// by other tools decode to the same type.
type BaseType int

const (
	TypeBigInt           BaseType = 0
	TypeBinary           BaseType = 1
	TypeBit              BaseType = 2
	TypeChar             BaseType = 3
	TypeDateTime         BaseType = 4
	TypeDecimal          BaseType = 5
	TypeFloat            BaseType = 6
	TypeImage            BaseType = 7
	TypeInt              BaseType = 8
	TypeMoney            BaseType = 9
	TypeNChar            BaseType = 10
	TypeNText            BaseType = 11
	TypeNVarChar         BaseType = 12
	TypeReal             BaseType = 13
	TypeUniqueIdentifier BaseType = 14
	TypeSmallDateTime    BaseType = 15
	TypeSmallInt         BaseType = 16
	TypeSmallMoney       BaseType = 17
	TypeText             BaseType = 18
	TypeTimestamp        BaseType = 19
	TypeTinyInt          BaseType = 20
	TypeVarBinary        BaseType = 21
	TypeVarChar          BaseType = 22
	TypeVariant          BaseType = 23
	TypeXML              BaseType = 25
	TypeUdt              BaseType = 29
	TypeStructured       BaseType = 30
	TypeDate             BaseType = 31
	TypeTime             BaseType = 32
	TypeDateTime2        BaseType = 33
	TypeDateTimeOffset   BaseType = 34
)

var baseTypeNames = map[BaseType]string{
	TypeBigInt:           "BigInt",
	TypeBinary:           "Binary",
	TypeBit:              "Bit",
	TypeChar:             "Char",
	TypeDateTime:         "DateTime",
	TypeDecimal:          "Decimal",
	TypeFloat:            "Float",
	TypeImage:            "Image",
	TypeInt:              "Int",
	TypeMoney:            "Money",
	TypeNChar:            "NChar",
	TypeNText:            "NText",
	TypeNVarChar:         "NVarChar",
	TypeReal:             "Real",
	TypeUniqueIdentifier: "UniqueIdentifier",
	TypeSmallDateTime:    "SmallDateTime",
	TypeSmallInt:         "SmallInt",
	TypeSmallMoney:       "SmallMoney",
	TypeText:             "Text",
	TypeTimestamp:        "Timestamp",
	TypeTinyInt:          "TinyInt",
	TypeVarBinary:        "VarBinary",
	TypeVarChar:          "VarChar",
	TypeVariant:          "Variant",
	TypeXML:              "Xml",
	TypeUdt:              "Udt",
	TypeStructured:       "Structured",
	TypeDate:             "Date",
	TypeTime:             "Time",
	TypeDateTime2:        "DateTime2",
	TypeDateTimeOffset:   "DateTimeOffset",
}

// sqlTypeAliases maps SQL Server type names that are not tag names onto
// their tag.
var sqlTypeAliases = map[string]BaseType{
	"numeric":     TypeDecimal,
	"rowversion":  TypeTimestamp,
	"sql_variant": TypeVariant,
	"sysname":     TypeNVarChar,
	"hierarchyid": TypeUdt,
	"geography":   TypeUdt,
	"geometry":    TypeUdt,
}

var baseTypesByName = func() map[string]BaseType {
	m := make(map[string]BaseType, len(baseTypeNames)+len(sqlTypeAliases))
	for t, name := range baseTypeNames {
		m[strings.ToLower(name)] = t
	}
	for name, t := range sqlTypeAliases {
		m[name] = t
	}
	return m
}()

// ParseBaseType resolves a tag name ("NVarChar") or SQL Server type name
// ("nvarchar", "numeric") to its BaseType. Matching is case-insensitive.
func ParseBaseType(name string) (BaseType, error) {
	t, ok := baseTypesByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: unrecognized base type %q", ErrParse, name)
	}
	return t, nil
}

// decodesAsText reports whether drivers hand values of t back as text
// bytes: character types, plus exact numerics, dates, times and GUIDs.
func (t BaseType) decodesAsText() bool {
	switch t {
	case TypeChar, TypeVarChar, TypeText, TypeNChar, TypeNVarChar, TypeNText, TypeXML,
		TypeDecimal, TypeMoney, TypeSmallMoney, TypeDate, TypeTime, TypeDateTime,
		TypeDateTime2, TypeDateTimeOffset, TypeSmallDateTime, TypeUniqueIdentifier:
		return true
	}
	return false
}

// IsValid reports whether t is a known tag.
func (t BaseType) IsValid() bool {
	_, ok := baseTypeNames[t]
	return ok
}

func (t BaseType) String() string {
	if name, ok := baseTypeNames[t]; ok {
		return name
	}
	return "BaseType(" + strconv.Itoa(int(t)) + ")"
}

// MarshalJSON writes the tag name.
func (t BaseType) MarshalJSON() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("%w: unrecognized base type %d", ErrParse, int(t))
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts either the tag name or its numeric value.
func (t *BaseType) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return fmt.Errorf("%w: %v", ErrParse, err)
		}
		parsed, err := ParseBaseType(name)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	}

	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("%w: base type must be a name or number, got %s", ErrParse, data)
	}
	if !BaseType(n).IsValid() {
		return fmt.Errorf("%w: unrecognized base type %d", ErrParse, n)
	}
	*t = BaseType(n)
	return nil
}
