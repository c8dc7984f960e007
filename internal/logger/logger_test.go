package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithContext_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "debug", true)
	defer Init("info", false)

	ctx := ContextWithRequestID(context.Background(), "req-42")
	WithContext(ctx).Info("hello")

	assert.Contains(t, buf.String(), `"request_id":"req-42"`)
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestParseLevel_FiltersBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "warn", false)
	defer Init("info", false)

	Info("dropped")
	Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestRequestID_Empty(t *testing.T) {
	assert.Equal(t, "", RequestID(context.Background()))
}
