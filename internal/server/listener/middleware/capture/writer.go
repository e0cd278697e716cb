package capture

import (
	"bytes"
	"context"
	"net/http"

	"github.com/robbyt/go-supervisor/runnables/httpserver"
)

// Writer decorates an httpserver.ResponseWriter and keeps a copy of every
// chunk that reaches the client, in order. A Writer serves one request.
type Writer struct {
	next   httpserver.ResponseWriter
	ctx    context.Context
	chunks [][]byte
	status int
}

// NewWriter wraps next. Once ctx is done the client is gone, and further
// writes are dropped.
func NewWriter(ctx context.Context, next httpserver.ResponseWriter) *Writer {
	return &Writer{next: next, ctx: ctx}
}

// Header implements http.ResponseWriter
func (w *Writer) Header() http.Header {
	return w.next.Header()
}

// Write implements http.ResponseWriter
func (w *Writer) Write(p []byte) (int, error) {
	if w.ctx.Err() != nil {
		return len(p), nil
	}

	n, err := w.next.Write(p)
	if n > 0 {
		w.chunks = append(w.chunks, bytes.Clone(p[:n]))
	}
	return n, err
}

// WriteHeader implements http.ResponseWriter
func (w *Writer) WriteHeader(statusCode int) {
	if w.ctx.Err() != nil {
		return
	}
	if w.status == 0 {
		w.status = statusCode
	}
	w.next.WriteHeader(statusCode)
}

// Flush sends buffered data to the client when the underlying writer supports it.
func (w *Writer) Flush() {
	if w.ctx.Err() != nil {
		return
	}
	_ = http.NewResponseController(w.next).Flush()
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *Writer) Unwrap() http.ResponseWriter {
	return w.next
}

// Status implements httpserver.ResponseWriter
func (w *Writer) Status() int {
	if w.status != 0 {
		return w.status
	}
	if s := w.next.Status(); s != 0 {
		return s
	}
	if len(w.chunks) > 0 {
		return http.StatusOK
	}
	return 0
}

// Written implements httpserver.ResponseWriter
func (w *Writer) Written() bool {
	return w.status != 0 || len(w.chunks) > 0 || w.next.Written()
}

// Size implements httpserver.ResponseWriter
func (w *Writer) Size() int {
	return w.next.Size()
}

// Chunks returns the captured writes in the order they happened.
func (w *Writer) Chunks() [][]byte {
	return w.chunks
}

// Bytes returns the captured body.
func (w *Writer) Bytes() []byte {
	return bytes.Join(w.chunks, nil)
}
