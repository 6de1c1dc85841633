// Package charset turns CSV text into the byte encoding named by the
// artifact charset tag.
package charset

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

const utf8Name = "utf-8"

// Lookup returns the encoding registered under name using the WHATWG labels
// browsers accept ("utf-8", "windows-1252", "latin1", "shift_jis", ...).
func Lookup(name string) (encoding.Encoding, error) {
	enc, err := htmlindex.Get(strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q", name)
	}
	return enc, nil
}

// Canonical returns the canonical WHATWG name for a charset label.
func Canonical(name string) (string, error) {
	enc, err := Lookup(name)
	if err != nil {
		return "", err
	}
	return htmlindex.Name(enc)
}

// IsUTF8 reports whether name is a label for UTF-8.
func IsUTF8(name string) bool {
	canonical, err := Canonical(name)
	return err == nil && canonical == utf8Name
}

// Encode converts text to the named charset. UTF-8 text is returned as-is.
// For any other charset a leading byte-order marker is dropped, since it has
// no meaning outside Unicode encodings.
func Encode(text, name string) ([]byte, error) {
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if canonical, _ := htmlindex.Name(enc); canonical == utf8Name {
		return []byte(text), nil
	}

	text = strings.TrimPrefix(text, "\ufeff")
	out, err := enc.NewEncoder().String(text)
	if err != nil {
		return nil, fmt.Errorf("encode to %s: %w", name, err)
	}
	return []byte(out), nil
}
