package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/user-records/internal/config"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, &buf)

	logger.Debug().Msg("hidden")
	logger.Info().Str("email", "a@x.com").Msg("user created")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "user created", entry["message"])
	assert.Equal(t, "a@x.com", entry["email"])
	assert.Equal(t, "user-records", entry["service"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "debug", Format: "console"}, &buf)

	logger.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zerolog.ErrorLevel, parseLevel(" error "))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("nonsense"))
}
