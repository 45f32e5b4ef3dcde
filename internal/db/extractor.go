package db

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tordrt/sqlmeta/internal/schema"
)

// ErrTableNotFound is returned when the catalog has no table for a reference.
var ErrTableNotFound = errors.New("table not found")

// typeShape is the storage size of a fixed-width type.
type typeShape struct {
	maxLength int
	precision int
	scale     int
}

var fixedShapes = map[schema.BaseType]typeShape{
	schema.TypeBigInt:           {maxLength: 8, precision: 19},
	schema.TypeInt:              {maxLength: 4, precision: 10},
	schema.TypeSmallInt:         {maxLength: 2, precision: 5},
	schema.TypeTinyInt:          {maxLength: 1, precision: 3},
	schema.TypeBit:              {maxLength: 1, precision: 1},
	schema.TypeReal:             {maxLength: 4, precision: 24},
	schema.TypeFloat:            {maxLength: 8, precision: 53},
	schema.TypeMoney:            {maxLength: 8, precision: 19, scale: 4},
	schema.TypeSmallMoney:       {maxLength: 4, precision: 10, scale: 4},
	schema.TypeUniqueIdentifier: {maxLength: 16},
	schema.TypeDate:             {maxLength: 3, precision: 10},
	schema.TypeDateTime:         {maxLength: 8, precision: 23, scale: 3},
	schema.TypeSmallDateTime:    {maxLength: 4, precision: 16},
	schema.TypeTime:             {maxLength: 5, precision: 16, scale: 7},
	schema.TypeDateTime2:        {maxLength: 8, precision: 27, scale: 7},
	schema.TypeDateTimeOffset:   {maxLength: 10, precision: 34, scale: 7},
}

// typeArgs holds the length, precision and scale a catalog reports for a
// column. Any of them may be missing.
type typeArgs struct {
	length    *int
	precision *int
	scale     *int
	collation *string
}

// newDataType sizes base using the catalog arguments. Variable-length
// types without a length are unbounded (MaxLength -1).
func newDataType(base schema.BaseType, args typeArgs) schema.DataType {
	dt := schema.DataType{BaseType: base}
	if shape, ok := fixedShapes[base]; ok {
		dt.MaxLength = shape.maxLength
		dt.Precision = shape.precision
		dt.Scale = shape.scale
	}

	switch base {
	case schema.TypeChar, schema.TypeNChar, schema.TypeVarChar, schema.TypeNVarChar,
		schema.TypeBinary, schema.TypeVarBinary:
		dt.MaxLength = -1
		if args.length != nil {
			dt.MaxLength = *args.length
		}
	case schema.TypeText, schema.TypeNText, schema.TypeImage, schema.TypeXML:
		dt.MaxLength = -1
	case schema.TypeDecimal:
		dt.Precision, dt.Scale = 18, 0
		if args.precision != nil {
			dt.Precision = *args.precision
		}
		if args.scale != nil {
			dt.Scale = *args.scale
		}
		dt.MaxLength = decimalStorage(dt.Precision)
	case schema.TypeTime, schema.TypeDateTime2, schema.TypeDateTimeOffset:
		if args.scale != nil {
			dt.Scale = *args.scale
		}
	}

	switch base {
	case schema.TypeChar, schema.TypeNChar, schema.TypeVarChar, schema.TypeNVarChar,
		schema.TypeText, schema.TypeNText:
		dt.Collation = args.collation
	}
	return dt
}

func decimalStorage(precision int) int {
	switch {
	case precision <= 9:
		return 5
	case precision <= 19:
		return 9
	case precision <= 28:
		return 13
	default:
		return 17
	}
}

// parseTypeModifiers reads the numbers in a declared type such as
// "varchar(40)" or "decimal(10, 2)".
func parseTypeModifiers(declared string) []int {
	open := strings.Index(declared, "(")
	end := strings.LastIndex(declared, ")")
	if open == -1 || end <= open {
		return nil
	}

	var mods []int
	for _, part := range strings.Split(declared[open+1:end], ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil
		}
		mods = append(mods, n)
	}
	return mods
}

func parseOptionalInt(s *string) (*int, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(*s))
	if err != nil {
		return nil, fmt.Errorf("invalid integer %q: %w", *s, err)
	}
	return &n, nil
}

// quoteIdent quotes a name with q, doubling any embedded quote characters.
func quoteIdent(name string, q string) string {
	return q + strings.ReplaceAll(name, q, q+q) + q
}

func tableNotFound(ref schema.TableReference) error {
	return fmt.Errorf("%w: %s", ErrTableNotFound, ref.QualifiedName())
}
