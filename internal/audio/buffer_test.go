package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkBuffer(t *testing.T) {
	b := NewChunkBuffer(6)

	chunk := []byte("abc")
	assert.NoError(t, b.Append(chunk))
	chunk[0] = 'X' // caller reuses its slice
	assert.NoError(t, b.Append([]byte("de")))
	assert.Equal(t, 5, b.Size())

	out, err := b.Flush()
	assert.NoError(t, err)
	assert.Equal(t, []byte("abcde"), out)
	out, err = b.Flush()
	assert.NoError(t, err)
	assert.Nil(t, out)

	_ = b.Append([]byte("z"))
	b.Clear()
	assert.Equal(t, 0, b.Size())
}

func TestChunkBuffer_OverflowLatches(t *testing.T) {
	b := NewChunkBuffer(4)

	assert.NoError(t, b.Append([]byte("abc")))
	assert.ErrorIs(t, b.Append([]byte("de")), ErrBufferFull)
	// a smaller chunk that would still fit is refused too
	assert.ErrorIs(t, b.Append([]byte("f")), ErrBufferFull)

	out, err := b.Flush()
	assert.ErrorIs(t, err, ErrBufferFull)
	assert.Nil(t, out)

	// flushing starts a fresh capture
	assert.NoError(t, b.Append([]byte("gh")))
	out, err = b.Flush()
	assert.NoError(t, err)
	assert.Equal(t, []byte("gh"), out)

	_ = b.Append([]byte("toolong"))
	b.Clear()
	assert.NoError(t, b.Append([]byte("ok")))
}
