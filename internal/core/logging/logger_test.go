package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponent(t *testing.T) {
	var buf bytes.Buffer

	Component(zerolog.New(&buf), "decorator").Info().Msg("claims rebuilt")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "decorator", entry["component"])
	assert.Equal(t, "claims rebuilt", entry["message"])
}
