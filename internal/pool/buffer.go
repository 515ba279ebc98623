package pool

import (
	"io"
	"sync"
)

// CopyBufferSize is the size of the buffers handed out by the pool (64KB).
const CopyBufferSize = 64 * 1024

// BufferPool hands out fixed-size byte slices for io.CopyBuffer.
type BufferPool struct {
	pool sync.Pool
	size int
}

// NewBufferPool creates a pool of buffers with the given size.
// A non-positive size falls back to CopyBufferSize.
func NewBufferPool(size int) *BufferPool {
	if size <= 0 {
		size = CopyBufferSize
	}
	bp := &BufferPool{size: size}
	bp.pool.New = func() any {
		buf := make([]byte, size)
		return &buf
	}
	return bp
}

// Get returns a full-length buffer. Return it with Put when done.
func (bp *BufferPool) Get() *[]byte {
	bufPtr := bp.pool.Get().(*[]byte)
	*bufPtr = (*bufPtr)[:bp.size]
	return bufPtr
}

// Put returns a buffer to the pool. Buffers of a foreign size are dropped.
func (bp *BufferPool) Put(bufPtr *[]byte) {
	if bufPtr == nil || cap(*bufPtr) != bp.size {
		return
	}
	bp.pool.Put(bufPtr)
}

// Copy copies src to dst through a pooled buffer.
func (bp *BufferPool) Copy(dst io.Writer, src io.Reader) (int64, error) {
	bufPtr := bp.Get()
	defer bp.Put(bufPtr)
	return io.CopyBuffer(dst, src, *bufPtr)
}

var defaultPool = NewBufferPool(CopyBufferSize)

// Copy copies src to dst through a buffer from the shared pool.
func Copy(dst io.Writer, src io.Reader) (int64, error) {
	return defaultPool.Copy(dst, src)
}
