package pool

import (
	"io"

	"github.com/valyala/bytebufferpool"
)

// PagePool hands out reusable buffers for rendering whole pages before they
// are written to a response.
type PagePool struct {
	pool bytebufferpool.Pool
}

// NewPagePool creates a new page buffer pool.
func NewPagePool() *PagePool {
	return &PagePool{}
}

// Get retrieves an empty buffer from the pool.
func (pp *PagePool) Get() *bytebufferpool.ByteBuffer {
	return pp.pool.Get()
}

// Put returns a buffer to the pool for reuse.
func (pp *PagePool) Put(buf *bytebufferpool.ByteBuffer) {
	pp.pool.Put(buf)
}

// Render runs fn against a pooled buffer and returns a copy of what it
// wrote. Nothing is returned if fn fails, so a half-rendered page never
// reaches the client.
func (pp *PagePool) Render(fn func(w io.Writer) error) ([]byte, error) {
	buf := pp.Get()
	defer pp.Put(buf)

	if err := fn(buf); err != nil {
		return nil, err
	}

	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out, nil
}
