//go:build e2e

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	serverCmd "github.com/atlanticdynamic/toolgate/cmd/toolgate/server"
	"github.com/atlanticdynamic/toolgate/internal/config"
	"github.com/atlanticdynamic/toolgate/internal/testutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

const e2eToken = "e2e-token"

// startServer runs a full gateway on a random port until the test ends.
func startServer(t *testing.T, mutate func(*config.Config)) (baseURL string, logs *testutil.LogBuffer) {
	t.Helper()

	toolsDir, err := filepath.Abs(filepath.Join("..", "..", "..", "examples", "tools"))
	require.NoError(t, err)

	cfg := config.New()
	cfg.Name = "toolgate-e2e"
	cfg.Version = "v0.0.0"
	cfg.Listen = testutil.GetRandomListeningPort(t)
	cfg.ToolsDirectory = toolsDir
	cfg.BuiltinTools = []string{"echo", "whoami"}
	cfg.Auth.Token = e2eToken
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	logs = &testutil.LogBuffer{}
	handler := slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- serverCmd.Run(ctx, cfg, serverCmd.WithLogHandler(handler)) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			if err != nil {
				t.Logf("server exited with error: %v", err)
			}
		case <-time.After(10 * time.Second):
			t.Error("server did not shut down")
		}
		if t.Failed() {
			t.Logf("server logs:\n%s", logs.String())
		}
	})

	baseURL = fmt.Sprintf("http://%s/", cfg.Listen)
	require.Eventually(t, func() bool {
		resp, err := http.Get(baseURL)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 10*time.Second, 50*time.Millisecond, "server did not become ready")

	return baseURL, logs
}

type bearerTransport struct {
	token string
	next  http.RoundTripper
}

func (b *bearerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+b.token)
	return b.next.RoundTrip(r)
}

// connect opens an MCP client session that presents token on every request.
func connect(t *testing.T, baseURL, token string) (*mcp.ClientSession, error) {
	t.Helper()
	httpClient := &http.Client{
		Timeout:   30 * time.Second,
		Transport: &bearerTransport{token: token, next: http.DefaultTransport},
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "toolgate-e2e-client", Version: "v0"}, nil)
	cs, err := client.Connect(t.Context(), &mcp.StreamableClientTransport{
		Endpoint:   baseURL,
		HTTPClient: httpClient,
	}, nil)
	if err != nil {
		return nil, err
	}
	t.Cleanup(func() { _ = cs.Close() })
	return cs, nil
}
