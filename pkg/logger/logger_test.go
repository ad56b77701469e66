package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/demoapp/pkg/logger"
)

func TestNew_ProductionIsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New("production", &buf)

	log.Debug("hidden")
	log.Info("booted", "scope", "cli")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "booted", line["msg"])
	assert.Equal(t, "cli", line["scope"])
}

func TestNew_LocalIsTextWithDebug(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New("local", &buf)

	log.Debug("resolving", "key", "db.connection")

	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "key=db.connection")
}

func TestOr(t *testing.T) {
	assert.Same(t, logger.L, logger.Or(nil))

	own := logger.New("", &bytes.Buffer{})
	assert.Same(t, own, logger.Or(own))
}
