package profiler

import (
	"context"
	"fmt"
	"net"
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
	require.NoError(t, server.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, server.Shutdown(ctx))
	})
	return server
}

func TestServer_BindsLoopback(t *testing.T) {
	assert.Empty(t, New(0, zerolog.Nop()).Addr())

	server := startServer(t)

	host, port, err := net.SplitHostPort(server.Addr())
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", host)
	assert.NotEqual(t, "0", port)
}

func TestServer_Endpoints(t *testing.T) {
	server := startServer(t)
	baseURL := "http://" + server.Addr()

	tests := []struct {
		name     string
		endpoint string
		want     int
	}{
		{name: "index", endpoint: "/debug/pprof/", want: http.StatusOK},
		{name: "heap", endpoint: "/debug/pprof/heap", want: http.StatusOK},
		{name: "cmdline", endpoint: "/debug/pprof/cmdline", want: http.StatusOK},
		{name: "symbol", endpoint: "/debug/pprof/symbol", want: http.StatusOK},
		{name: "unknown path", endpoint: "/metrics", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(baseURL + tt.endpoint)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestServer_PortInUse(t *testing.T) {
	server := startServer(t)
	_, port, err := net.SplitHostPort(server.Addr())
	require.NoError(t, err)

	var p int
	_, err = fmt.Sscan(port, &p)
	require.NoError(t, err)

	err = New(p, zerolog.Nop()).Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen")
}
