package pool

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewByteBuffer(t *testing.T) {
	bb := NewByteBuffer(1024)

	require.NotNil(t, bb.B)
	require.Equal(t, 0, bb.Len())
	require.Equal(t, 1024, bb.Cap())
}

func TestByteBuffer_WriteAndReset(t *testing.T) {
	bb := NewByteBuffer(16)

	bb.MustWrite([]byte("hello"))
	n, err := bb.Write([]byte(" world"))
	require.NoError(t, err)
	require.Equal(t, 6, n)
	require.NoError(t, bb.WriteByte('!'))
	require.Equal(t, []byte("hello world!"), bb.Bytes())

	capBefore := bb.Cap()
	bb.Reset()
	require.Equal(t, 0, bb.Len())
	require.Equal(t, capBefore, bb.Cap())
}

func TestByteBuffer_Extend(t *testing.T) {
	bb := NewByteBuffer(8)

	require.True(t, bb.Extend(8))
	require.Equal(t, 8, bb.Len())
	require.False(t, bb.Extend(1))
	require.Equal(t, 8, bb.Len())
}

func TestByteBuffer_ExtendOrGrow(t *testing.T) {
	bb := NewByteBuffer(4)
	bb.MustWrite([]byte{1, 2, 3})

	bb.ExtendOrGrow(10)
	require.Equal(t, 13, bb.Len())
	require.Equal(t, []byte{1, 2, 3}, bb.B[:3])
}

func TestByteBuffer_Grow(t *testing.T) {
	t.Run("small buffer grows by default step", func(t *testing.T) {
		bb := NewByteBuffer(0)
		bb.Grow(10)
		require.GreaterOrEqual(t, bb.Cap(), ColumnBufferDefaultSize)
		require.Equal(t, 0, bb.Len())
	})

	t.Run("no-op with enough room", func(t *testing.T) {
		bb := NewByteBuffer(100)
		bb.Grow(50)
		require.Equal(t, 100, bb.Cap())
	})

	t.Run("large request honoured", func(t *testing.T) {
		bb := NewByteBuffer(0)
		bb.Grow(ColumnBufferDefaultSize * 3)
		require.GreaterOrEqual(t, bb.Cap(), ColumnBufferDefaultSize*3)
	})
}

func TestByteBuffer_WriteTo(t *testing.T) {
	bb := NewByteBuffer(8)
	bb.MustWrite([]byte("qcf"))

	var out bytes.Buffer
	n, err := bb.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
	require.Equal(t, "qcf", out.String())
}

func TestByteBufferPool_DropsOversized(t *testing.T) {
	p := NewByteBufferPool(8, 64)

	bb := p.Get()
	bb.Grow(1024)
	bb.MustWrite([]byte("x"))
	p.Put(bb)

	again := p.Get()
	require.Equal(t, 0, again.Len())
	p.Put(nil)
}

func TestColumnAndBlockBuffers(t *testing.T) {
	cb := GetColumnBuffer()
	require.Equal(t, 0, cb.Len())
	cb.MustWrite([]byte("col"))
	PutColumnBuffer(cb)

	bb := GetBlockBuffer()
	require.Equal(t, 0, bb.Len())
	PutBlockBuffer(bb)
}

func TestByteBufferPool_Concurrent(t *testing.T) {
	p := NewByteBufferPool(32, 0)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for range 100 {
				bb := p.Get()
				bb.MustWrite([]byte{byte(id)})
				require.Equal(t, 1, bb.Len())
				p.Put(bb)
			}
		}(i)
	}
	wg.Wait()
}
