package httpx

import (
	"bytes"
	"maps"
	"net/http"
)

// ResponseBuffer holds a handler's response until Flush, so the caller can
// look at the outcome first. The first status written wins, as with
// net/http.
type ResponseBuffer struct {
	status int
	header http.Header
	body   bytes.Buffer
	wrote  bool
}

func NewResponseBuffer() *ResponseBuffer {
	return &ResponseBuffer{header: http.Header{}}
}

func (b *ResponseBuffer) Header() http.Header {
	return b.header
}

func (b *ResponseBuffer) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *ResponseBuffer) Write(p []byte) (int, error) {
	b.WriteHeader(http.StatusOK)
	b.wrote = true
	return b.body.Write(p)
}

// Status is 0 until the handler writes a status or a body.
func (b *ResponseBuffer) Status() int {
	return b.status
}

func (b *ResponseBuffer) Body() []byte {
	if !b.wrote {
		return nil
	}
	return b.body.Bytes()
}

// Flush replays headers, status and body onto w.
func (b *ResponseBuffer) Flush(w http.ResponseWriter) error {
	maps.Copy(w.Header(), b.header)
	if b.status != 0 {
		w.WriteHeader(b.status)
	}
	if !b.wrote {
		return nil
	}
	_, err := w.Write(b.body.Bytes())
	return err
}
