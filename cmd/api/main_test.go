package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartupLogger(t *testing.T) {
	var buf bytes.Buffer
	log := startupLogger(&buf)
	log.Error().Err(errors.New("boom")).Msg("healthmonitor api failed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "healthmonitor api failed", entry["message"])
	assert.Contains(t, entry, "time")
}
