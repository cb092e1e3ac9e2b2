package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	buf := new(bytes.Buffer)
	log := New(Config{Level: "info", Format: "json", Output: buf, Service: "civic-horizon"})

	log.Debug().Msg("hidden")
	log.Info().Str("route", "/health").Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "civic-horizon", entry["service"])
	assert.Equal(t, "/health", entry["route"])
	assert.Contains(t, entry, "time")
}

func TestNew_Console(t *testing.T) {
	buf := new(bytes.Buffer)
	log := New(Config{Level: "debug", Format: "console", Output: buf})
	log.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel(" DEBUG "))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zerolog.Disabled, parseLevel("off"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("nonsense"))
}
