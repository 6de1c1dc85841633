package csvbuild

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// Shape is the structural class of a Record.
type Shape int

const (
	ShapeInvalid Shape = iota
	ShapeMapping
	ShapeSequence
)

func (s Shape) String() string {
	switch s {
	case ShapeMapping:
		return "mapping"
	case ShapeSequence:
		return "sequence"
	default:
		return "invalid"
	}
}

// Field is one key/value pair of a mapping-shaped record.
type Field struct {
	Key   string
	Value any
}

// Record is one row of export data. It is either a mapping from field name to
// scalar (keys kept in encounter order) or a sequence of scalars aligned to
// the column list by position.
type Record struct {
	shape  Shape
	fields []Field
	index  map[string]int
	values []any
	raw    any
}

// Fields builds a mapping-shaped record. A repeated key keeps the position of
// its first occurrence and the value of its last.
func Fields(fields ...Field) Record {
	r := Record{shape: ShapeMapping, index: make(map[string]int, len(fields))}
	for _, f := range fields {
		r.set(f.Key, f.Value)
	}
	return r
}

// FromMap builds a mapping-shaped record from a Go map. Map iteration order
// is random, so keys are taken in sorted order.
func FromMap(m map[string]any) Record {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{Key: k, Value: m[k]})
	}
	return Fields(fields...)
}

// Values builds a sequence-shaped record.
func Values(values ...any) Record {
	return Record{shape: ShapeSequence, values: append([]any(nil), values...)}
}

func (r *Record) set(key string, value any) {
	if i, ok := r.index[key]; ok {
		r.fields[i].Value = value
		return
	}
	r.index[key] = len(r.fields)
	r.fields = append(r.fields, Field{Key: key, Value: value})
}

// Shape reports whether the record is a mapping, a sequence or neither.
func (r Record) Shape() Shape { return r.shape }

// Keys returns the field names of a mapping record in encounter order.
func (r Record) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Key
	}
	return keys
}

// Get returns the value stored under key in a mapping record.
func (r Record) Get(key string) (any, bool) {
	i, ok := r.index[key]
	if !ok {
		return nil, false
	}
	return r.fields[i].Value, true
}

// At returns the value at position i in a sequence record.
func (r Record) At(i int) (any, bool) {
	if i < 0 || i >= len(r.values) {
		return nil, false
	}
	return r.values[i], true
}

// Len returns the number of fields or values.
func (r Record) Len() int {
	if r.shape == ShapeSequence {
		return len(r.values)
	}
	return len(r.fields)
}

func (r Record) each(fn func(key string, value any) error) error {
	switch r.shape {
	case ShapeMapping:
		for _, f := range r.fields {
			if err := fn(f.Key, f.Value); err != nil {
				return err
			}
		}
	case ShapeSequence:
		for i, v := range r.values {
			if err := fn(strconv.Itoa(i), v); err != nil {
				return err
			}
		}
	}
	return nil
}

// UnmarshalJSON decodes a JSON object into a mapping record (preserving key
// order) and a JSON array into a sequence record. Any other JSON value yields
// an invalid record, which the builder rejects.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch tok {
	case json.Delim('{'):
		*r = Record{shape: ShapeMapping, index: map[string]int{}}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return err
			}
			key, ok := keyTok.(string)
			if !ok {
				return fmt.Errorf("unexpected object key %v", keyTok)
			}
			var value any
			if err := dec.Decode(&value); err != nil {
				return err
			}
			r.set(key, value)
		}
		_, err = dec.Token()
		return err

	case json.Delim('['):
		*r = Record{shape: ShapeSequence, values: []any{}}
		for dec.More() {
			var value any
			if err := dec.Decode(&value); err != nil {
				return err
			}
			r.values = append(r.values, value)
		}
		_, err = dec.Token()
		return err

	default:
		*r = Record{shape: ShapeInvalid, raw: tok}
		return nil
	}
}

// MarshalJSON encodes the record back to an object or array, keeping field order.
func (r Record) MarshalJSON() ([]byte, error) {
	switch r.shape {
	case ShapeSequence:
		return json.Marshal(r.values)
	case ShapeMapping:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, f := range r.fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(f.Key)
			if err != nil {
				return nil, err
			}
			value, err := json.Marshal(f.Value)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(value)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return json.Marshal(r.raw)
	}
}

// Dataset is the ordered list of records for one export, or the Declined
// sentinel meaning the caller explicitly chose not to export.
type Dataset struct {
	records  []Record
	declined bool
}

// Declined is the "caller declines export" sentinel. Building it yields a
// skipped result rather than text or an error.
var Declined = Dataset{declined: true}

// NewDataset returns a dataset holding records.
func NewDataset(records ...Record) Dataset {
	return Dataset{records: append([]Record(nil), records...)}
}

// IsDeclined reports whether d is the Declined sentinel.
func (d Dataset) IsDeclined() bool { return d.declined }

// Len returns the number of records.
func (d Dataset) Len() int { return len(d.records) }

// Records returns a copy of the record list.
func (d Dataset) Records() []Record { return append([]Record(nil), d.records...) }

// Load implements Source so a Dataset value can be passed wherever a
// provider is accepted.
func (d Dataset) Load(context.Context) (Dataset, error) { return d, nil }

// UnmarshalJSON accepts an array of records, null (empty) or the literal false
// (declined).
func (d *Dataset) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("false")):
		*d = Declined
		return nil
	case bytes.Equal(trimmed, []byte("null")):
		*d = Dataset{}
		return nil
	case len(trimmed) > 0 && trimmed[0] == '[':
		var records []Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return err
		}
		*d = Dataset{records: records}
		return nil
	default:
		return fmt.Errorf("%w: dataset must be an array of records or false", ErrInvalidData)
	}
}

// MarshalJSON encodes the declined sentinel as false and anything else as an array.
func (d Dataset) MarshalJSON() ([]byte, error) {
	if d.declined {
		return []byte("false"), nil
	}
	if d.records == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d.records)
}

// DecodeDataset reads a JSON dataset from r.
func DecodeDataset(r io.Reader) (Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Dataset{}, fmt.Errorf("read dataset: %w", err)
	}
	var d Dataset
	if err := json.Unmarshal(data, &d); err != nil {
		return Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}
	return d, nil
}

// Source produces the dataset at build time.
type Source interface {
	Load(ctx context.Context) (Dataset, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Dataset, error)

// Load calls f.
func (f SourceFunc) Load(ctx context.Context) (Dataset, error) { return f(ctx) }
