package iojson

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" yaml:"name" toml:"name"`
	Lines []int  `json:"lines" yaml:"lines" toml:"lines"`
}

func TestDecodeFile(t *testing.T) {
	tests := []struct {
		file    string
		content string
	}{
		{"s.json", `{"name": "lint", "lines": [1, 2]}`},
		{"s.yaml", "name: lint\nlines: [1, 2]\n"},
		{"s.yml", "name: lint\nlines:\n  - 1\n  - 2\n"},
		{"s.toml", "name = \"lint\"\nlines = [1, 2]\n"},
	}

	dir := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			var got sample
			require.NoError(t, DecodeFile(path, &got))
			assert.Equal(t, sample{Name: "lint", Lines: []int{1, 2}}, got)
		})
	}
}

func TestDecode_UnknownFields(t *testing.T) {
	var s sample
	assert.Error(t, Decode(FormatJSON, []byte(`{"nam": "x"}`), &s))
	assert.Error(t, Decode(FormatYAML, []byte("nam: x\n"), &s))
	assert.Error(t, Decode(FormatTOML, []byte("nam = \"x\"\n"), &s))
}

func TestFormatOf(t *testing.T) {
	f, err := FormatOf("a/B.YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = FormatOf("a.ini")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
