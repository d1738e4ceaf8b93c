package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesJSONAtLevel(t *testing.T) {
	var buf bytes.Buffer
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	Setup(Config{Level: "warn", Output: &buf})

	log.Info().Msg("hidden")
	log.Warn().Str("provider", "openai").Msg("visible")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "visible", entry["message"])
	assert.Equal(t, "openai", entry["provider"])
	assert.Equal(t, "warn", entry["level"])
}

func TestSetupFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	l := Setup(Config{Level: "loud", Output: &buf})

	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
}
