package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithLogger(context.Background(), logger)
	FromContext(ctx).Info("loaded", "files", 3)

	assert.Contains(t, buf.String(), "files=3")
}

func TestMissingLoggerDiscards(t *testing.T) {
	logger := FromContext(context.Background())
	assert.NotNil(t, logger)
	logger.Error("dropped")
}
