package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := With(WithLogger(context.Background(), logger), "scenario", "base")
	FromContext(ctx).Info("Solving.")

	assert.Contains(t, buf.String(), "scenario=base")
	assert.Contains(t, buf.String(), "msg=Solving.")
}

func TestFromContext_PanicsWithoutLogger(t *testing.T) {
	assert.Panics(t, func() { FromContext(context.Background()) })
}
