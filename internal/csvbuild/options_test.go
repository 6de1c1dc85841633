package csvbuild

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverrides_Apply(t *testing.T) {
	defaults := Options{
		FieldSep:           ";",
		TxtDelim:           `"`,
		DecimalSep:         ",",
		QuoteStrings:       true,
		Header:             true,
		AddByteOrderMarker: true,
		Charset:            "utf-8",
	}

	t.Run("absent fields keep defaults", func(t *testing.T) {
		assert.Equal(t, defaults, Overrides{}.Apply(defaults))
	})

	t.Run("explicit false turns flags off", func(t *testing.T) {
		var o Overrides
		require.NoError(t, json.Unmarshal([]byte(`{"header":false,"quoteStrings":false,"addByteOrderMarker":false}`), &o))

		opts := o.Apply(defaults)
		assert.False(t, opts.Header)
		assert.False(t, opts.QuoteStrings)
		assert.False(t, opts.AddByteOrderMarker)
		assert.Equal(t, ";", opts.FieldSep)
	})

	t.Run("explicit true turns flags on", func(t *testing.T) {
		on := true
		opts := Overrides{Header: &on, FieldSep: "tab", ColumnOrder: []string{"b", "a"}}.Apply(Options{})
		assert.True(t, opts.Header)
		assert.Equal(t, "tab", opts.FieldSep)
		assert.Equal(t, []string{"b", "a"}, opts.ColumnOrder)
	})

	t.Run("does not alias column order", func(t *testing.T) {
		order := []string{"a"}
		opts := Overrides{ColumnOrder: order}.Apply(Options{})
		order[0] = "z"
		assert.Equal(t, []string{"a"}, opts.ColumnOrder)
	})
}
