package csvbuild

import (
	"fmt"
	"unicode/utf8"

	"github.com/mrlokans/csvexport/internal/charset"
	"github.com/mrlokans/csvexport/internal/separator"
)

const (
	DefaultFieldSep   = ","
	DefaultTxtDelim   = `"`
	DefaultDecimalSep = "."
	DefaultCharset    = "utf-8"
	DefaultFilename   = "download.csv"

	// ByteOrderMarker is the UTF-8 BOM prepended when AddByteOrderMarker is set.
	ByteOrderMarker = "\ufeff"

	lineTerminator = "\r\n"
)

// Options controls how a dataset is serialized.
type Options struct {
	FieldSep           string            `json:"fieldSep"`
	TxtDelim           string            `json:"txtDelim"`
	DecimalSep         string            `json:"decimalSep"`
	QuoteStrings       bool              `json:"quoteStrings"`
	Header             bool              `json:"header"`
	ColumnOrder        []string          `json:"columnOrder,omitempty"`
	Label              map[string]string `json:"label,omitempty"`
	AddByteOrderMarker bool              `json:"addByteOrderMarker"`
	Charset            string            `json:"charset"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		FieldSep:   DefaultFieldSep,
		TxtDelim:   DefaultTxtDelim,
		DecimalSep: DefaultDecimalSep,
		Charset:    DefaultCharset,
	}
}

// Normalize fills empty fields with defaults, resolves named separators and
// validates the result. The receiver is not modified.
func (o Options) Normalize() (Options, error) {
	if o.FieldSep == "" {
		o.FieldSep = DefaultFieldSep
	}
	if o.TxtDelim == "" {
		o.TxtDelim = DefaultTxtDelim
	}
	if o.DecimalSep == "" {
		o.DecimalSep = DefaultDecimalSep
	}
	if o.Charset == "" {
		o.Charset = DefaultCharset
	}

	o.FieldSep = separator.Resolve(o.FieldSep)

	if utf8.RuneCountInString(o.TxtDelim) != 1 {
		return o, fmt.Errorf("%w: text delimiter %q must be a single character", ErrInvalidOptions, o.TxtDelim)
	}
	if o.FieldSep == o.TxtDelim {
		return o, fmt.Errorf("%w: field separator and text delimiter are both %q", ErrInvalidOptions, o.FieldSep)
	}
	if _, err := charset.Lookup(o.Charset); err != nil {
		return o, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	if len(o.ColumnOrder) > 0 {
		seen := make(map[string]struct{}, len(o.ColumnOrder))
		for _, key := range o.ColumnOrder {
			if _, dup := seen[key]; dup {
				return o, fmt.Errorf("%w: duplicate column %q in column order", ErrInvalidOptions, key)
			}
			seen[key] = struct{}{}
		}
		o.ColumnOrder = append([]string(nil), o.ColumnOrder...)
	}

	return o, nil
}

// HeaderLabel returns the display name for a column key.
func (o Options) HeaderLabel(key string) string {
	if label, ok := o.Label[key]; ok {
		return label
	}
	return key
}

// Overrides is the request form of Options. Empty strings and nil flags are
// taken from the defaults passed to Apply, so a request can turn a flag off
// even when the server default has it on.
type Overrides struct {
	FieldSep           string            `json:"fieldSep"`
	TxtDelim           string            `json:"txtDelim"`
	DecimalSep         string            `json:"decimalSep"`
	QuoteStrings       *bool             `json:"quoteStrings"`
	Header             *bool             `json:"header"`
	ColumnOrder        []string          `json:"columnOrder,omitempty"`
	Label              map[string]string `json:"label,omitempty"`
	AddByteOrderMarker *bool             `json:"addByteOrderMarker"`
	Charset            string            `json:"charset"`
}

// Apply returns defaults with every field set in o replaced.
func (o Overrides) Apply(defaults Options) Options {
	opts := defaults
	if o.FieldSep != "" {
		opts.FieldSep = o.FieldSep
	}
	if o.TxtDelim != "" {
		opts.TxtDelim = o.TxtDelim
	}
	if o.DecimalSep != "" {
		opts.DecimalSep = o.DecimalSep
	}
	if o.Charset != "" {
		opts.Charset = o.Charset
	}
	if o.QuoteStrings != nil {
		opts.QuoteStrings = *o.QuoteStrings
	}
	if o.Header != nil {
		opts.Header = *o.Header
	}
	if o.AddByteOrderMarker != nil {
		opts.AddByteOrderMarker = *o.AddByteOrderMarker
	}
	if o.ColumnOrder != nil {
		opts.ColumnOrder = append([]string(nil), o.ColumnOrder...)
	}
	if o.Label != nil {
		opts.Label = o.Label
	}
	return opts
}
