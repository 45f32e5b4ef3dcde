package schema

import "errors"

var (
	// ErrValidation reports a value that breaks a field constraint.
	ErrValidation = errors.New("validation failed")

	// ErrReferenceMismatch reports a table reference that points at a
	// different server or database than the connection it was given to.
	// It always arrives wrapped together with ErrValidation.
	ErrReferenceMismatch = errors.New("table reference does not match connection")

	ErrNotFound       = errors.New("column not found")
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrKeyMismatch    = errors.New("key does not match column name")
	ErrOutOfRange     = errors.New("index out of range")
	ErrParse          = errors.New("parse error")
	ErrNotImplemented = errors.New("not implemented")
)
