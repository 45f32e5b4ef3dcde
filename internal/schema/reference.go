package schema

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goccy/go-json"
)

// MaxIdentifierLength bounds every identity field of a table reference and
// every column name.
const MaxIdentifierLength = 128

// TableReference identifies a table by server, database, schema and name.
type TableReference struct {
	Server   string `json:"Server"`
	Database string `json:"Database"`
	Schema   string `json:"Schema"`
	Name     string `json:"Name"`
}

// Validate checks that all four identity fields are present and short enough.
func (r TableReference) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Server, validation.Required, validation.RuneLength(1, MaxIdentifierLength)),
		validation.Field(&r.Database, validation.Required, validation.RuneLength(1, MaxIdentifierLength)),
		validation.Field(&r.Schema, validation.Required, validation.RuneLength(1, MaxIdentifierLength)),
		validation.Field(&r.Name, validation.Required, validation.RuneLength(1, MaxIdentifierLength)),
	)
	if err != nil {
		return fmt.Errorf("%w: table reference: %v", ErrValidation, err)
	}
	return nil
}

// ParseReference decodes and validates a reference from its JSON form.
func ParseReference(data []byte) (TableReference, error) {
	var r TableReference
	if err := json.Unmarshal(data, &r); err != nil {
		return TableReference{}, fmt.Errorf("%w: table reference: %v", ErrParse, err)
	}
	if err := r.Validate(); err != nil {
		return TableReference{}, err
	}
	return r, nil
}

// JSONString returns the JSON form of r.
func (r TableReference) JSONString() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r TableReference) Equal(other TableReference) bool {
	return r == other
}

func (r TableReference) Hash() uint64 {
	h := newHasher()
	h.str(r.Server)
	h.str(r.Database)
	h.str(r.Schema)
	h.str(r.Name)
	return h.sum()
}

// QualifiedName returns "schema.name".
func (r TableReference) QualifiedName() string {
	return r.Schema + "." + r.Name
}

func (r TableReference) String() string {
	return r.Server + "." + r.Database + "." + r.Schema + "." + r.Name
}

// MatchConnection fails when ref does not belong to the connection
// identified by server and database.
func MatchConnection(ref TableReference, server, database string) error {
	if ref.Server != server {
		return fmt.Errorf("%w: %w: table server (%s) does not match connection server (%s)",
			ErrValidation, ErrReferenceMismatch, ref.Server, server)
	}
	if ref.Database != database {
		return fmt.Errorf("%w: %w: table database (%s) does not match connection database (%s)",
			ErrValidation, ErrReferenceMismatch, ref.Database, database)
	}
	return nil
}

// ParseQualifiedName splits "schema.table" into its parts. A bare table
// name takes defaultSchema.
func ParseQualifiedName(name, defaultSchema string) (schemaName, table string, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", fmt.Errorf("%w: table name is required", ErrValidation)
	}

	parts := strings.Split(name, ".")
	switch len(parts) {
	case 1:
		schemaName, table = defaultSchema, parts[0]
	case 2:
		schemaName, table = parts[0], parts[1]
	default:
		return "", "", fmt.Errorf("%w: table name %q must be <schema>.<table> or <table>", ErrValidation, name)
	}

	if schemaName == "" || table == "" {
		return "", "", fmt.Errorf("%w: table name %q has an empty part", ErrValidation, name)
	}
	return schemaName, table, nil
}
