package capture

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/robbyt/go-loglater"
	"github.com/robbyt/go-supervisor/runnables/httpserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findAttr(attrs []slog.Attr, key string) (slog.Value, bool) {
	for _, a := range attrs {
		if a.Key == key {
			return a.Value, true
		}
		if a.Value.Kind() == slog.KindGroup {
			if v, ok := findAttr(a.Value.Group(), key); ok {
				return v, true
			}
		}
	}
	return slog.Value{}, false
}

func serve(
	t *testing.T,
	m *Middleware,
	handler http.HandlerFunc,
	req *http.Request,
) *httptest.ResponseRecorder {
	t.Helper()
	route, err := httpserver.NewRouteFromHandlerFunc("test", "/", handler, m.Handler())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	route.ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareLogsWhatTheClientReceived(t *testing.T) {
	t.Parallel()

	collector := loglater.NewLogCollector(nil)
	m := New(WithLogHandler(collector))

	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		for _, part := range []string{"event: message\n", `data: {"id":1}` + "\n", "\n"} {
			_, _ = w.Write([]byte(part))
			_ = http.NewResponseController(w).Flush()
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"jsonrpc":"2.0"}`))
	rec := serve(t, m, handler, req)

	logs := collector.GetLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, slog.LevelInfo, logs[0].Level)
	assert.Equal(t, "HTTP request", logs[0].Message)

	body, ok := findAttr(logs[0].Attrs, "responseBody")
	require.True(t, ok)
	assert.Equal(t, rec.Body.String(), body.String())

	reqBody, ok := findAttr(logs[0].Attrs, "requestBody")
	require.True(t, ok)
	assert.JSONEq(t, `{"jsonrpc":"2.0"}`, reqBody.String())

	id, ok := findAttr(logs[0].Attrs, "requestID")
	require.True(t, ok)
	assert.NotEmpty(t, id.String())
	assert.Equal(t, id.String(), rec.Header().Get(RequestIDHeader))
}

func TestMiddlewareRequestBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "object", body: `{"a":1}`, want: `{"a":1}`},
		{name: "big integer becomes string", body: `{"n":123456789012345678901234567890}`, want: `{"n":"123456789012345678901234567890"}`},
		{name: "unsafe integer becomes string", body: `{"n":9007199254740993}`, want: `{"n":"9007199254740993"}`},
		{name: "not json", body: `{oops`, want: UnserializableBody},
		{name: "empty", body: ``, want: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			collector := loglater.NewLogCollector(nil)
			m := New(WithLogHandler(collector))

			var seen string
			handler := func(w http.ResponseWriter, r *http.Request) {
				b := new(strings.Builder)
				_, _ = io.Copy(b, r.Body)
				seen = b.String()
				w.WriteHeader(http.StatusOK)
			}

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			serve(t, m, handler, req)

			assert.Equal(t, tt.body, seen, "downstream handlers still see the raw body")

			logs := collector.GetLogs()
			require.Len(t, logs, 1)
			got, ok := findAttr(logs[0].Attrs, "requestBody")
			require.True(t, ok)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestMiddlewareLevelByStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   slog.Level
	}{
		{status: http.StatusOK, want: slog.LevelInfo},
		{status: http.StatusUnauthorized, want: slog.LevelWarn},
		{status: http.StatusInternalServerError, want: slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()

			collector := loglater.NewLogCollector(nil)
			m := New(WithLogHandler(collector))
			handler := func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}

			rec := serve(t, m, handler, httptest.NewRequest(http.MethodPost, "/", nil))
			assert.Equal(t, tt.status, rec.Code)

			logs := collector.GetLogs()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.want, logs[0].Level)
		})
	}
}

func TestMiddlewareTruncatesLoggedBodies(t *testing.T) {
	t.Parallel()

	collector := loglater.NewLogCollector(nil)
	m := New(WithLogHandler(collector), WithMaxBodySize(4))

	handler := func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}

	rec := serve(t, m, handler, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, "0123456789", rec.Body.String())

	logs := collector.GetLogs()
	require.Len(t, logs, 1)
	got, ok := findAttr(logs[0].Attrs, "responseBody")
	require.True(t, ok)
	assert.Equal(t, "0123"+truncatedSuffix, got.String())
}

func TestMiddlewareKeepsIncomingRequestID(t *testing.T) {
	t.Parallel()

	m := New(WithLogHandler(loglater.NewLogCollector(nil)))
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")

	var downstream string
	rec := serve(t, m, func(w http.ResponseWriter, r *http.Request) {
		downstream = r.Header.Get(RequestIDHeader)
	}, req)

	assert.Equal(t, "abc-123", downstream)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}
