package profiler

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) *Server {
	t.Helper()

	server := New(0, zerolog.Nop())
	require.NoError(t, server.Start(context.Background()), "Start() error")
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	})

	return server
}

func TestServer_StartAndShutdown(t *testing.T) {
	server := New(0, zerolog.Nop())
	assert.Empty(t, server.Addr())

	require.NoError(t, server.Start(context.Background()))
	assert.NotEmpty(t, server.Addr())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, server.Shutdown(ctx))
}

func TestServer_PprofEndpoints(t *testing.T) {
	baseURL := "http://" + startServer(t).Addr()

	tests := []struct {
		name     string
		endpoint string
	}{
		{name: "index", endpoint: "/debug/pprof/"},
		{name: "cmdline", endpoint: "/debug/pprof/cmdline"},
		{name: "symbol", endpoint: "/debug/pprof/symbol"},
		{name: "named profile", endpoint: "/debug/pprof/goroutine?debug=1"},
		{name: "heap", endpoint: "/debug/pprof/heap"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(baseURL + tt.endpoint)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			_, _ = io.Copy(io.Discard, resp.Body)

			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}

func TestServer_UnknownProfile(t *testing.T) {
	baseURL := "http://" + startServer(t).Addr()

	resp, err := http.Get(baseURL + "/debug/pprof/nope")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
