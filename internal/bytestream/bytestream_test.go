package bytestream_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astenc/binjs/internal/bytestream"
)

func TestBufferWriteByteAndBytes(t *testing.T) {
	t.Parallel()

	buf := bytestream.NewBuffer()
	for i := range 200 {
		require.NoError(t, buf.WriteByte(byte(i)))
	}

	assert.Equal(t, 200, buf.Len())

	got := buf.Bytes()
	require.Len(t, got, 200)

	for i := range 200 {
		assert.Equal(t, byte(i), got[i])
	}
}

func TestBufferSpansMultipleBlocks(t *testing.T) {
	t.Parallel()

	buf := bytestream.NewBuffer()

	const n = 64*1024 + 17

	for i := range n {
		require.NoError(t, buf.WriteByte(byte(i)))
	}

	assert.Equal(t, n, buf.Len())
	assert.Len(t, buf.Bytes(), n)
}

func TestSourceReadByteAndBytes(t *testing.T) {
	t.Parallel()

	src := bytestream.NewSource([]byte{1, 2, 3, 4, 5})

	b, err := src.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(1), b)

	rest, err := src.ReadBytes(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3, 4}, rest)

	assert.True(t, src.Remaining())

	_, err = src.ReadBytes(2)
	assert.Error(t, err)
}

func TestSourceSeek(t *testing.T) {
	t.Parallel()

	src := bytestream.NewSource([]byte{1, 2, 3, 4, 5})
	src.Seek(3)

	b, err := src.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(4), b)
}

func TestVarintRoundTrip(t *testing.T) {
	t.Parallel()

	buf := bytestream.NewBuffer()
	values := []uint64{0, 1, 127, 128, 300, 1 << 20, 1 << 40}

	for _, v := range values {
		require.NoError(t, bytestream.WriteVarint(buf, v))
	}

	src := bytestream.NewSource(buf.Bytes())

	for _, want := range values {
		got, err := src.ReadVarint()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
