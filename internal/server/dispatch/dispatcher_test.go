package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/robbyt/go-loglater"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func constHandler(text string) mcp.ToolHandler {
	return func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return textResult(text), nil
	}
}

// connect opens an in-memory client session against d.
func connect(t *testing.T, d *Dispatcher) *mcp.ClientSession {
	t.Helper()
	ctx := t.Context()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ss, err := d.Server().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func firstText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

func TestAddToolAndCall(t *testing.T) {
	t.Parallel()

	d := New("toolgate-test", "v1")
	d.Registrar("greeter").AddTool(&mcp.Tool{Name: "hello", Description: "says hello"}, constHandler("hi"))

	cs := connect(t, d)
	res, err := cs.CallTool(t.Context(), &mcp.CallToolParams{Name: "hello", Arguments: map[string]any{}})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "hi", firstText(t, res))

	assert.Equal(t, []ToolInfo{{Name: "hello", Description: "says hello", Owner: "greeter"}}, d.Tools())
}

func TestDuplicateToolLastWins(t *testing.T) {
	t.Parallel()

	collector := loglater.NewLogCollector(nil)
	d := New("toolgate-test", "v1", WithLogHandler(collector))

	d.Registrar("first").AddTool(&mcp.Tool{Name: "dup"}, constHandler("first"))
	d.Registrar("second").AddTool(&mcp.Tool{Name: "dup"}, constHandler("second"))

	cs := connect(t, d)
	res, err := cs.CallTool(t.Context(), &mcp.CallToolParams{Name: "dup", Arguments: map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, "second", firstText(t, res))

	tools := d.Tools()
	require.Len(t, tools, 1)
	assert.Equal(t, "second", tools[0].Owner)

	var warned bool
	for _, rec := range collector.GetLogs() {
		if rec.Level == slog.LevelWarn && strings.Contains(rec.Message, "more than once") {
			warned = true
		}
	}
	assert.True(t, warned, "duplicate registration should log a warning")
}

func TestRemoveOwner(t *testing.T) {
	t.Parallel()

	d := New("toolgate-test", "v1")
	d.Registrar("keep").AddTool(&mcp.Tool{Name: "stays"}, constHandler("stays"))
	d.Registrar("drop").AddTool(&mcp.Tool{Name: "b"}, constHandler("b"))
	d.Registrar("drop").AddTool(&mcp.Tool{Name: "a"}, constHandler("a"))

	assert.Equal(t, []string{"a", "b"}, d.RemoveOwner("drop"))
	assert.Nil(t, d.RemoveOwner("drop"), "second removal finds nothing")

	tools := d.Tools()
	require.Len(t, tools, 1)
	assert.Equal(t, "stays", tools[0].Name)

	cs := connect(t, d)
	listed, err := cs.ListTools(t.Context(), nil)
	require.NoError(t, err)
	require.Len(t, listed.Tools, 1)
	assert.Equal(t, "stays", listed.Tools[0].Name)

	res, err := cs.CallTool(t.Context(), &mcp.CallToolParams{Name: "a", Arguments: map[string]any{}})
	if err == nil {
		assert.True(t, res.IsError, "removed tool must not be callable")
	}
}

func TestToolHandlerPanicIsContained(t *testing.T) {
	t.Parallel()

	d := New("toolgate-test", "v1")
	d.AddTool("boom", &mcp.Tool{Name: "explode"}, func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		panic("kaboom")
	})
	d.AddTool("ok", &mcp.Tool{Name: "fine"}, constHandler("still here"))

	cs := connect(t, d)
	_, err := cs.CallTool(t.Context(), &mcp.CallToolParams{Name: "explode", Arguments: map[string]any{}})
	require.Error(t, err)

	res, err := cs.CallTool(t.Context(), &mcp.CallToolParams{Name: "fine", Arguments: map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, "still here", firstText(t, res))
}

type ctxKey struct{}

func TestMiddlewareSeesHandlerContext(t *testing.T) {
	t.Parallel()

	var (
		mu          sync.Mutex
		seenMethods []string
	)
	mw := func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			mu.Lock()
			seenMethods = append(seenMethods, method)
			mu.Unlock()
			return next(context.WithValue(ctx, ctxKey{}, "from-middleware"), method, req)
		}
	}

	d := New("toolgate-test", "v1", WithMiddleware(mw))
	d.AddTool("probe", &mcp.Tool{Name: "probe"}, func(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		v, _ := ctx.Value(ctxKey{}).(string)
		return textResult(v), nil
	})

	cs := connect(t, d)
	res, err := cs.CallTool(t.Context(), &mcp.CallToolParams{Name: "probe", Arguments: map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, "from-middleware", firstText(t, res))
	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, seenMethods, "tools/call")
}

func postJSONRPC(t *testing.T, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	return req
}

func TestHandleOverHTTP(t *testing.T) {
	t.Parallel()

	d := New("toolgate-test", "v1")
	d.AddTool("builtin", &mcp.Tool{Name: "ping"}, constHandler("pong"))

	rec := httptest.NewRecorder()
	req := postJSONRPC(t, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"ping","arguments":{}}}`)
	require.NoError(t, d.Handle(t.Context(), rec, req))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		ID     int `json:"id"`
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.ID)
	require.Len(t, resp.Result.Content, 1)
	assert.Equal(t, "pong", resp.Result.Content[0].Text)
}

func TestHandleRecoversPanics(t *testing.T) {
	t.Parallel()

	d := New("toolgate-test", "v1")
	d.handler = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("transport exploded")
	})

	req := postJSONRPC(t, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	err := d.Handle(t.Context(), httptest.NewRecorder(), req)
	require.ErrorIs(t, err, ErrDispatchPanic)
	assert.Contains(t, err.Error(), "transport exploded")
}

func TestHandlePassesContext(t *testing.T) {
	t.Parallel()

	d := New("toolgate-test", "v1")
	var seen any
	d.handler = http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = r.Context().Value(ctxKey{})
	})

	ctx := context.WithValue(t.Context(), ctxKey{}, "threaded")
	require.NoError(t, d.Handle(ctx, httptest.NewRecorder(), postJSONRPC(t, `{}`)))
	assert.Equal(t, "threaded", seen)
}
