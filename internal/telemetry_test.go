package internal_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/uggedal/gitoff/internal"
)

func TestSetupTracing(t *testing.T) {
	t.Run("without a trace file", func(t *testing.T) {
		tracer, shutdown, err := internal.SetupTracing("")
		require.NoError(t, err)

		_, span := tracer.Start(context.Background(), "render.index")
		span.End()

		require.False(t, span.SpanContext().IsValid())
		require.NoError(t, shutdown())
	})

	t.Run("with a trace file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "trace.json")

		tracer, shutdown, err := internal.SetupTracing(path)
		require.NoError(t, err)

		_, span := tracer.Start(context.Background(), "render.log")
		span.End()
		require.NoError(t, shutdown())

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Contains(t, string(content), `"Name":"render.log"`)
	})

	t.Run("failure cases", func(t *testing.T) {
		t.Run("when the trace directory does not exist", func(t *testing.T) {
			_, _, err := internal.SetupTracing("/nonexistent/dir/trace.json")
			require.ErrorContains(t, err, "failed to open trace file")
		})
	})
}
