package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerFromContext_FallsBackToNoOp(t *testing.T) {
	logger := LoggerFromContext(context.Background())

	assert.NotNil(t, logger)
	logger.Log("INFO", "ignored", nil)
}

func TestConsoleLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(&buf, "json", "info")
	ctx := WithLogger(context.Background(), logger)

	LoggerFromContext(ctx).Log("INFO", "task created", map[string]interface{}{"task": "Food Shortage"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "task created", entry["msg"])
	assert.Equal(t, "Food Shortage", entry["task"])
}

func TestConsoleLogger_LevelFilterAndText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(&buf, "text", "warn")

	logger.Log("DEBUG", "hidden", nil)
	logger.Log("INFO", "hidden", nil)
	logger.Log("ERROR", "shown", map[string]interface{}{"b": 2, "a": 1})

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, "shown a=1 b=2"))
}

func TestMulti_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	Multi{NewConsoleLogger(&a, "text", "debug"), nil, NewConsoleLogger(&b, "text", "debug")}.Log("INFO", "hello", nil)

	assert.Contains(t, a.String(), "hello")
	assert.Contains(t, b.String(), "hello")
}
