package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"unicode/utf8"

	"github.com/goccy/go-json"
)

// DataRecord is a row held as an ordered mapping from column name to
// Value. Keys iterate in insertion order; Set on an existing key keeps its
// place.
type DataRecord struct {
	keys   []string
	values map[string]Value
}

// NewDataRecord returns an empty record.
func NewDataRecord() *DataRecord {
	return &DataRecord{values: make(map[string]Value)}
}

// ParseRecord decodes a flat JSON object, keeping the order of its members.
func ParseRecord(data []byte) (*DataRecord, error) {
	r := NewDataRecord()
	if err := r.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *DataRecord) init() {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
}

// Len returns the number of entries.
func (r *DataRecord) Len() int {
	return len(r.keys)
}

// Keys returns the keys in order.
func (r *DataRecord) Keys() []string {
	return slices.Clone(r.keys)
}

// Get returns the value stored under key.
func (r *DataRecord) Get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

// ContainsKey reports whether key is present.
func (r *DataRecord) ContainsKey(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Set stores v under key, appending the key when it is new.
func (r *DataRecord) Set(key string, v Value) {
	r.init()
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Add stores v under a new key; an existing key is an error. Keys must be
// valid UTF-8.
func (r *DataRecord) Add(key string, v Value) error {
	if !utf8.ValidString(key) {
		return fmt.Errorf("%w: record key %q is not valid UTF-8", ErrValidation, key)
	}
	if r.ContainsKey(key) {
		return fmt.Errorf("%w: record already has key %q", ErrDuplicateKey, key)
	}
	r.Set(key, v)
	return nil
}

// Remove deletes key and reports whether it was present.
func (r *DataRecord) Remove(key string) bool {
	if !r.ContainsKey(key) {
		return false
	}
	delete(r.values, key)
	r.keys = slices.DeleteFunc(r.keys, func(k string) bool { return k == key })
	return true
}

// Clear removes every entry.
func (r *DataRecord) Clear() {
	r.keys = nil
	r.values = make(map[string]Value)
}

// All yields (key, value) pairs in order.
func (r *DataRecord) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, k := range r.keys {
			if !yield(k, r.values[k]) {
				return
			}
		}
	}
}

// Clone returns an independent copy of r.
func (r *DataRecord) Clone() *DataRecord {
	out := &DataRecord{
		keys:   slices.Clone(r.keys),
		values: make(map[string]Value, len(r.values)),
	}
	for k, v := range r.values {
		out.values[k] = v
	}
	return out
}

// Equal reports whether both records hold equal values under the same keys
// in the same order.
func (r *DataRecord) Equal(other *DataRecord) bool {
	if r == nil || other == nil {
		return r == other
	}
	if !slices.Equal(r.keys, other.keys) {
		return false
	}
	for _, k := range r.keys {
		if !r.values[k].Equal(other.values[k]) {
			return false
		}
	}
	return true
}

// MarshalJSON writes every entry, nulls included, in key order. A key that
// is not valid UTF-8 is an error rather than being rewritten.
func (r *DataRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if !utf8.ValidString(k) {
			return nil, fmt.Errorf("%w: record key %q is not valid UTF-8", ErrValidation, k)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := r.values[k].MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("record key %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces the contents of r with a flat JSON object.
func (r *DataRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: record: %v", ErrParse, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: record must be a JSON object", ErrParse)
	}

	parsed := NewDataRecord()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: record: %v", ErrParse, err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: record: expected key, got %v", ErrParse, tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("%w: record key %q: %v", ErrParse, key, err)
		}
		v, err := valueFromJSON(raw)
		if err != nil {
			return fmt.Errorf("record key %q: %w", key, err)
		}
		if err := parsed.Add(key, v); err != nil {
			return fmt.Errorf("%w: record: %v", ErrParse, err)
		}
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: record: %v", ErrParse, err)
	}
	if tok, err := dec.Token(); tok != nil || (err != nil && !errors.Is(err, io.EOF)) {
		return fmt.Errorf("%w: record: unexpected data after object", ErrParse)
	}

	*r = *parsed
	return nil
}

// JSONString returns the JSON object form of r.
func (r *DataRecord) JSONString() (string, error) {
	b, err := r.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(b), nil
}
