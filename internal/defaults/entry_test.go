package defaults

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeList(t *testing.T) {
	entries, err := DecodeList([]byte("\ufeff" + `[["https://example.com/a.git","a"],["https://example.com/b.git","b"]]`))
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Source: "https://example.com/a.git", Name: "a"},
		{Source: "https://example.com/b.git", Name: "b"},
	}, entries)

	_, err = DecodeList([]byte(`{"a":1}`))
	assert.Error(t, err)

	entries, err = DecodeList([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFromRows_KeepsShortRows(t *testing.T) {
	entries := FromRows([][]string{{"https://x"}, {}, {"https://y", "y", "ignored"}})
	assert.Equal(t, []Entry{{Source: "https://x"}, {}, {Source: "https://y", Name: "y"}}, entries)
	assert.Equal(t, [][]string{{"https://x", ""}, {"", ""}, {"https://y", "y"}}, Rows(entries))
}

func TestEntryValidate(t *testing.T) {
	tests := []struct {
		name    string
		entry   Entry
		wantErr bool
	}{
		{"ok", Entry{Source: "https://x", Name: "x"}, false},
		{"no source", Entry{Name: "x"}, true},
		{"no name", Entry{Source: "https://x"}, true},
		{"dotdot", Entry{Source: "https://x", Name: ".."}, true},
		{"nested", Entry{Source: "https://x", Name: "a/b"}, true},
		{"backslash", Entry{Source: "https://x", Name: `a\b`}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
