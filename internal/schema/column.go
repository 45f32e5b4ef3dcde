package schema

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goccy/go-json"
)

// TableColumn holds the full metadata of one column.
//
// Identity and computed are exclusive concerns. IdentitySeed and
// IdentityIncrement only carry meaning on identity columns, IsPersisted and
// ComputedLogic only on computed columns, and DefaultLogic only when
// HasDefault is set; Validate enforces all of it.
type TableColumn struct {
	Name       string   `json:"Name"`
	DataType   DataType `json:"SqlDataType"`
	Position   *int     `json:"Position"`
	PkPosition *int     `json:"PkPosition"`
	IsNullable bool     `json:"IsNullable"`

	IsIdentity        bool `json:"IsIdentity"`
	IdentitySeed      *int `json:"IdentitySeed"`
	IdentityIncrement *int `json:"IdentityIncrement"`

	IsComputed    bool    `json:"IsComputed"`
	IsPersisted   bool    `json:"IsPersisted"`
	ComputedLogic *string `json:"ComputedLogic"`

	HasDefault   bool    `json:"HasDefault"`
	DefaultLogic *string `json:"DefaultLogic"`
}

// tableColumnJSON is TableColumn with presence tracking for the members
// that must appear in every serialized column.
type tableColumnJSON struct {
	Name       *string   `json:"Name"`
	DataType   *DataType `json:"SqlDataType"`
	Position   *int      `json:"Position"`
	PkPosition *int      `json:"PkPosition"`
	IsNullable bool      `json:"IsNullable"`

	IsIdentity        bool `json:"IsIdentity"`
	IdentitySeed      *int `json:"IdentitySeed"`
	IdentityIncrement *int `json:"IdentityIncrement"`

	IsComputed    bool    `json:"IsComputed"`
	IsPersisted   bool    `json:"IsPersisted"`
	ComputedLogic *string `json:"ComputedLogic"`

	HasDefault   bool    `json:"HasDefault"`
	DefaultLogic *string `json:"DefaultLogic"`
}

// ParseColumn decodes a column from its JSON form.
func ParseColumn(data []byte) (TableColumn, error) {
	var c TableColumn
	if err := c.UnmarshalJSON(data); err != nil {
		return TableColumn{}, err
	}
	return c, nil
}

func (c *TableColumn) UnmarshalJSON(data []byte) error {
	var raw tableColumnJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: column: %v", ErrParse, err)
	}
	if raw.Name == nil {
		return fmt.Errorf("%w: column: Name is required", ErrParse)
	}
	if raw.DataType == nil {
		return fmt.Errorf("%w: column %s: SqlDataType is required", ErrParse, *raw.Name)
	}

	*c = TableColumn{
		Name:              *raw.Name,
		DataType:          *raw.DataType,
		Position:          raw.Position,
		PkPosition:        raw.PkPosition,
		IsNullable:        raw.IsNullable,
		IsIdentity:        raw.IsIdentity,
		IdentitySeed:      raw.IdentitySeed,
		IdentityIncrement: raw.IdentityIncrement,
		IsComputed:        raw.IsComputed,
		IsPersisted:       raw.IsPersisted,
		ComputedLogic:     raw.ComputedLogic,
		HasDefault:        raw.HasDefault,
		DefaultLogic:      raw.DefaultLogic,
	}
	return nil
}

// JSONString returns the JSON form of c.
func (c TableColumn) JSONString() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Validate checks the name and the identity/computed/default invariants.
func (c TableColumn) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required, validation.RuneLength(1, MaxIdentifierLength)),
		validation.Field(&c.IsComputed,
			validation.When(c.IsIdentity, validation.Empty.Error("an identity column cannot be computed"))),
		validation.Field(&c.IdentitySeed,
			validation.When(!c.IsIdentity, validation.Nil.Error("only identity columns have a seed"))),
		validation.Field(&c.IdentityIncrement,
			validation.When(!c.IsIdentity, validation.Nil.Error("only identity columns have an increment"))),
		validation.Field(&c.IsPersisted,
			validation.When(!c.IsComputed, validation.Empty.Error("only computed columns can be persisted"))),
		validation.Field(&c.ComputedLogic,
			validation.When(!c.IsComputed, validation.Nil.Error("only computed columns have computed logic"))),
		validation.Field(&c.DefaultLogic,
			validation.When(!c.HasDefault, validation.Nil.Error("only columns with a default have default logic"))),
	)
	if err != nil {
		return fmt.Errorf("%w: column %q: %v", ErrValidation, c.Name, err)
	}
	return nil
}

// Equal compares every field, the data type included. Optional fields must
// agree on presence as well as value.
func (c TableColumn) Equal(other TableColumn) bool {
	return equalIntPtr(c.Position, other.Position) && c.equalIgnoringPosition(other)
}

func (c TableColumn) equalIgnoringPosition(other TableColumn) bool {
	return c.Name == other.Name &&
		c.DataType.Equal(other.DataType) &&
		equalIntPtr(c.PkPosition, other.PkPosition) &&
		c.IsNullable == other.IsNullable &&
		c.IsIdentity == other.IsIdentity &&
		equalIntPtr(c.IdentitySeed, other.IdentitySeed) &&
		equalIntPtr(c.IdentityIncrement, other.IdentityIncrement) &&
		c.IsComputed == other.IsComputed &&
		c.IsPersisted == other.IsPersisted &&
		equalStrPtr(c.ComputedLogic, other.ComputedLogic) &&
		c.HasDefault == other.HasDefault &&
		equalStrPtr(c.DefaultLogic, other.DefaultLogic)
}

func (c TableColumn) Hash() uint64 {
	h := newHasher()
	h.optInt(c.Position)
	c.hashInto(h)
	return h.sum()
}

func (c TableColumn) hashInto(h *hasher) {
	h.str(c.Name)
	c.DataType.hashInto(h)
	h.optInt(c.PkPosition)
	h.flag(c.IsNullable)
	h.flag(c.IsIdentity)
	h.optInt(c.IdentitySeed)
	h.optInt(c.IdentityIncrement)
	h.flag(c.IsComputed)
	h.flag(c.IsPersisted)
	h.optStr(c.ComputedLogic)
	h.flag(c.HasDefault)
	h.optStr(c.DefaultLogic)
}

// Editable reports whether callers supply this column's value on insert.
func (c TableColumn) Editable() bool {
	return !c.IsIdentity && !c.IsComputed
}

// clone copies c so the pointer fields no longer alias the original.
func (c TableColumn) clone() TableColumn {
	c.Position = cloneInt(c.Position)
	c.PkPosition = cloneInt(c.PkPosition)
	c.IdentitySeed = cloneInt(c.IdentitySeed)
	c.IdentityIncrement = cloneInt(c.IdentityIncrement)
	c.ComputedLogic = cloneStr(c.ComputedLogic)
	c.DefaultLogic = cloneStr(c.DefaultLogic)
	c.DataType.Collation = cloneStr(c.DataType.Collation)
	return c
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// IntPtr returns a pointer to n, for filling optional column fields.
func IntPtr(n int) *int { return &n }

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }
