package tracing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracingFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "span_test.txt")
	require.NoError(t, Init("routegate", "0.0.1", fname))

	ctx, root := StartSpan(context.Background(), "route", "trace-1")
	root.WithAttributes(map[string]string{AttrIntent: "sales"}).WithInt(AttrPriority, 3)
	root.Event("intent_detected", map[string]string{AttrIntent: "sales"})

	_, child := StartSpan(ctx, "workflow", "trace-1")
	assert.Equal(t, root.SpanContext().TraceID(), child.SpanContext().TraceID())
	EndSpan(child, errors.New("budget exceeded"))
	EndSpan(root, nil)

	data, err := os.ReadFile(fname)
	require.NoError(t, err)
	assert.Contains(t, string(data), "trace-1")
	assert.Contains(t, string(data), "budget exceeded")

	var nilSpan *Span
	assert.Nil(t, nilSpan.WithAttributes(map[string]string{"k": "v"}))
	EndSpan(nil, nil)
}
