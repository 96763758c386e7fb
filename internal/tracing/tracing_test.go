package tracing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tiernow/internal/config"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(config.TracingConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_WritesSpansToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spans.json")
	shutdown, err := Init(config.TracingConfig{Enabled: true, ServiceName: "tiernow-test", OutputFile: path})
	require.NoError(t, err)

	_, span := Tracer().Start(context.Background(), "unit")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"unit"`)
}
