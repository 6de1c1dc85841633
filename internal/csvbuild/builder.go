// Package csvbuild serializes tabular records into CSV text.
//
// A build resolves the column list (explicit or first-seen), optionally
// renders a header row from the label map, renders each record with
// RFC 4180 style quoting and CRLF line endings, and optionally prefixes a
// UTF-8 byte-order marker. Building is deterministic and never mutates its
// input.
package csvbuild

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Result is the outcome of a successful build. Skipped is set when the
// dataset was the Declined sentinel; Text is empty in that case.
type Result struct {
	Text    string
	Skipped bool
	Columns []string
	Rows    int
}

// Builder renders datasets to CSV text. The zero value is ready to use.
type Builder struct{}

// NewBuilder creates a Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build serializes data according to opts. The context is not consulted:
// rendering is in-memory and runs to completion once started. Cancellation
// applies while the Source loads.
func (b *Builder) Build(_ context.Context, data Dataset, opts Options) (Result, error) {
	if data.IsDeclined() {
		return Result{Skipped: true}, nil
	}

	shape, err := validateShape(data.records)
	if err != nil {
		return Result{}, err
	}

	opts, err = opts.Normalize()
	if err != nil {
		return Result{}, err
	}

	columns := resolveColumns(data.records, shape, opts.ColumnOrder)

	var sb strings.Builder
	if opts.AddByteOrderMarker {
		sb.WriteString(ByteOrderMarker)
	}

	if opts.Header && len(columns) > 0 {
		for i, key := range columns {
			if i > 0 {
				sb.WriteString(opts.FieldSep)
			}
			sb.WriteString(escapeField(opts.HeaderLabel(key), opts))
		}
		sb.WriteString(lineTerminator)
	}

	for _, record := range data.records {
		for i, key := range columns {
			if i > 0 {
				sb.WriteString(opts.FieldSep)
			}
			value, ok := lookupValue(record, key, i)
			if !ok {
				sb.WriteString(escapeField("", opts))
				continue
			}
			sb.WriteString(escapeField(formatScalar(value, opts.DecimalSep), opts))
		}
		sb.WriteString(lineTerminator)
	}

	return Result{
		Text:    sb.String(),
		Columns: columns,
		Rows:    len(data.records),
	}, nil
}

// validateShape checks that every record has the same shape and carries only
// scalar values. It returns the common shape (ShapeInvalid for an empty dataset).
func validateShape(records []Record) (Shape, error) {
	shape := ShapeInvalid
	for i, r := range records {
		if r.Shape() == ShapeInvalid {
			return ShapeInvalid, fmt.Errorf("%w: record %d is neither a mapping nor a sequence", ErrInvalidData, i)
		}
		if i == 0 {
			shape = r.Shape()
		} else if r.Shape() != shape {
			return ShapeInvalid, fmt.Errorf("%w: record %d is a %s but record 0 is a %s", ErrInvalidData, i, r.Shape(), shape)
		}

		err := r.each(func(key string, value any) error {
			if !isScalar(value) {
				return fmt.Errorf("%w: record %d field %q holds a non-scalar %T", ErrInvalidData, i, key, value)
			}
			return nil
		})
		if err != nil {
			return ShapeInvalid, err
		}
	}
	return shape, nil
}

// resolveColumns returns the explicit order when given, the first-seen key
// union for mapping records, or positional indices for sequence records.
func resolveColumns(records []Record, shape Shape, explicit []string) []string {
	if len(explicit) > 0 {
		return explicit
	}

	if shape == ShapeSequence {
		width := 0
		for _, r := range records {
			width = max(width, r.Len())
		}
		columns := make([]string, width)
		for i := range columns {
			columns[i] = strconv.Itoa(i)
		}
		return columns
	}

	seen := make(map[string]struct{})
	var columns []string
	for _, r := range records {
		for _, f := range r.fields {
			if _, ok := seen[f.Key]; ok {
				continue
			}
			seen[f.Key] = struct{}{}
			columns = append(columns, f.Key)
		}
	}
	return columns
}

func lookupValue(r Record, key string, position int) (any, bool) {
	if r.Shape() == ShapeSequence {
		return r.At(position)
	}
	return r.Get(key)
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// formatScalar renders a scalar value. Numbers get their decimal point
// replaced by decimalSep.
func formatScalar(v any, decimalSep string) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return withDecimalSep(x.String(), decimalSep)
	case int:
		return strconv.FormatInt(int64(x), 10)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return withDecimalSep(formatFloat(float64(x), 32), decimalSep)
	case float64:
		return withDecimalSep(formatFloat(x, 64), decimalSep)
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64, bitSize int) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, bitSize)
	}
	return strconv.FormatFloat(f, 'f', -1, bitSize)
}

func withDecimalSep(number, decimalSep string) string {
	if decimalSep == DefaultDecimalSep {
		return number
	}
	return strings.Replace(number, ".", decimalSep, 1)
}

// escapeField quotes a field when forced to or when it contains the field
// separator, the text delimiter or a line break. Embedded delimiters are doubled.
func escapeField(field string, opts Options) string {
	needsQuotes := opts.QuoteStrings ||
		strings.Contains(field, opts.FieldSep) ||
		strings.Contains(field, opts.TxtDelim) ||
		strings.ContainsAny(field, "\r\n")
	if !needsQuotes {
		return field
	}
	return opts.TxtDelim + strings.ReplaceAll(field, opts.TxtDelim, opts.TxtDelim+opts.TxtDelim) + opts.TxtDelim
}
