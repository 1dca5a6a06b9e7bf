package iojson

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalError(t *testing.T) {
	tests := []struct {
		name     string
		data     map[string]any
		wantData map[string]any
	}{
		{
			name:     "plain data",
			data:     map[string]any{"at": "20"},
			wantData: map[string]any{"at": "20"},
		},
		{
			name:     "unmarshalable data",
			data:     map[string]any{"fn": func() {}},
			wantData: map[string]any{"json_error": "json: unsupported type: func()"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Error
			require.NoError(t, json.Unmarshal([]byte(MarshalError("no commenting range", tt.data)), &got))
			assert.Equal(t, "no commenting range", got.Message)
			assert.Equal(t, tt.wantData, got.Data)
		})
	}
}

func TestWriteWith(t *testing.T) {
	var out, errOut bytes.Buffer

	require.NoError(t, WriteWith(&out, &errOut, map[string]int{"line": 3}))
	assert.JSONEq(t, `{"line": 3}`, out.String())
	assert.Empty(t, errOut.String())

	out.Reset()
	require.NoError(t, WriteWith(&out, &errOut, func() {}))
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "error marshaling")
}
