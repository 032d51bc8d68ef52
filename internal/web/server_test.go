package web_test

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/uggedal/gitoff/internal"
	"github.com/uggedal/gitoff/internal/git/gittest"
	"github.com/uggedal/gitoff/internal/web"
)

func TestServer(t *testing.T) {
	setup := func(t *testing.T) web.Server {
		root := t.TempDir()
		r := gittest.Init(t, filepath.Join(root, "repo"))
		r.Commit("served over http", map[string]string{"README": "hi\n"})

		logs := bytes.NewBuffer(nil)
		w := internal.NewCustomWriter(logs, logs)
		handler, err := web.NewHandler(testConfig(root), w, noop.NewTracerProvider().Tracer("test"))
		require.NoError(t, err)

		server, err := web.NewServer("127.0.0.1:0", handler, w)
		require.NoError(t, err)
		return server
	}

	t.Run("serves pages on the chosen port", func(t *testing.T) {
		server := setup(t)
		defer server.Close()
		require.NotZero(t, server.Port())

		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/repo/l", server.Port()))
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, string(body), "served over http")
	})

	t.Run("stops accepting connections once closed", func(t *testing.T) {
		server := setup(t)
		require.NoError(t, server.Close())

		_, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/", server.Port()))
		require.Error(t, err)
	})

	t.Run("failure cases", func(t *testing.T) {
		t.Run("when the address is invalid", func(t *testing.T) {
			_, err := web.NewServer("not an address", http.NotFoundHandler(), internal.NewCustomWriter(io.Discard, io.Discard))
			require.ErrorContains(t, err, `failed to listen on "not an address"`)
		})
	})
}
