package comm

import "sync"

// BufferPool is a session-scoped stack of reusable byte slices.
//
// Buffers have short lifetimes (encoded in map, recycled in reduce of the same
// round), so a mutex-guarded stack is enough.
type BufferPool struct {
	mu      sync.Mutex
	free    [][]byte
	maxSize int
	limit   int
}

// NewBufferPool creates a pool keeping at most limit idle buffers. Buffers that
// grew beyond maxSize bytes are dropped on Put instead of being retained.
func NewBufferPool(limit int, maxSize int) *BufferPool {
	return &BufferPool{limit: max(limit, 0), maxSize: maxSize}
}

// Get returns an empty buffer.
func (p *BufferPool) Get() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := len(p.free); n > 0 {
		buf := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]

		return buf[:0]
	}

	return nil
}

// Put returns buf to the pool.
func (p *BufferPool) Put(buf []byte) {
	if buf == nil || (p.maxSize > 0 && cap(buf) > p.maxSize) {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) < p.limit {
		p.free = append(p.free, buf[:0])
	}
}

// Idle returns the number of buffers held by the pool.
func (p *BufferPool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.free)
}
