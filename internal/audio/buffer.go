package audio

import (
	"errors"
	"sync"
)

// ErrBufferFull is returned when a chunk would push the capture past its
// size cap.
var ErrBufferFull = errors.New("capture buffer full")

// ChunkBuffer accumulates recorder chunks until the capture stops. Once a
// chunk is refused the buffer stays overflowed until Flush or Clear, so a
// truncated capture is never mistaken for a complete one.
type ChunkBuffer struct {
	chunks     [][]byte
	totalSize  int
	maxSize    int
	overflowed bool
	mu         sync.Mutex
}

func NewChunkBuffer(maxSize int) *ChunkBuffer {
	return &ChunkBuffer{maxSize: maxSize}
}

// Append copies chunk into the buffer.
func (b *ChunkBuffer) Append(chunk []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	newSize := b.totalSize + len(chunk)
	if b.overflowed || newSize > b.maxSize {
		b.overflowed = true
		return ErrBufferFull
	}
	// recorders may reuse their chunk slices
	b.chunks = append(b.chunks, append([]byte(nil), chunk...))
	b.totalSize = newSize
	return nil
}

// Flush concatenates all chunks in order and empties the buffer. It returns
// ErrBufferFull instead of the data if any chunk was refused.
func (b *ChunkBuffer) Flush() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.overflowed {
		b.reset()
		return nil, ErrBufferFull
	}
	if len(b.chunks) == 0 {
		return nil, nil
	}
	out := make([]byte, 0, b.totalSize)
	for _, c := range b.chunks {
		out = append(out, c...)
	}
	b.reset()
	return out, nil
}

func (b *ChunkBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
}

func (b *ChunkBuffer) reset() {
	b.chunks = nil
	b.totalSize = 0
	b.overflowed = false
}

// Overflowed reports whether a chunk has been refused since the last Flush
// or Clear.
func (b *ChunkBuffer) Overflowed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overflowed
}

func (b *ChunkBuffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalSize
}
