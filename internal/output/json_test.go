package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, "split", map[string]int{"entries": 3}))

	var got JSONResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.True(t, got.OK)
	assert.Equal(t, "split", got.Command)
	assert.Equal(t, "dev", got.Version)
	assert.Equal(t, map[string]any{"entries": 3.0}, got.Data)
	assert.Empty(t, got.Error)
}

func TestPrintJSONError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintJSONError(&buf, "split", errors.New("file not found: x.xlsx"), ExitUserError))

	var got JSONResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.False(t, got.OK)
	assert.Equal(t, "file not found: x.xlsx", got.Error)
	assert.Equal(t, ExitUserError, got.Code)
	assert.Nil(t, got.Data)
}
