// Package bytestream implements the append-only sink and sequential
// source spec §4.5 describes: a growable chain of fixed-size blocks for
// writing, and a random-access-by-offset reader with the basic varint
// format over the result.
package bytestream

import "io"

// blockSize is the fixed capacity of each chunk in a Buffer's chain.
const blockSize = 64 * 1024

// Buffer is an append-only byte sink that grows a chain of blockSize
// blocks instead of repeatedly reallocating one contiguous slice.
type Buffer struct {
	blocks [][]byte
	size   int
}

// NewBuffer creates an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// WriteByte appends a single byte, allocating a new block when the
// current one is full.
func (b *Buffer) WriteByte(c byte) error {
	if len(b.blocks) == 0 || len(b.blocks[len(b.blocks)-1]) == blockSize {
		b.blocks = append(b.blocks, make([]byte, 0, blockSize))
	}

	last := len(b.blocks) - 1
	b.blocks[last] = append(b.blocks[last], c)
	b.size++

	return nil
}

// Write appends p, satisfying io.Writer by repeated WriteByte calls.
func (b *Buffer) Write(p []byte) (int, error) {
	for _, c := range p {
		if err := b.WriteByte(c); err != nil {
			return 0, err
		}
	}

	return len(p), nil
}

// Len returns the total number of bytes written so far.
func (b *Buffer) Len() int { return b.size }

// WriteTo concatenates the buffer's contents onto w, satisfying
// io.WriterTo — "exposes concatenation onto any sink accepting byte
// chunks" from spec §4.5.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	var total int64

	for _, block := range b.blocks {
		n, err := w.Write(block)
		total += int64(n)

		if err != nil {
			return total, err
		}
	}

	return total, nil
}

// Bytes flattens the buffer into a single contiguous slice. Intended for
// tests and small final outputs; callers streaming a large buffer should
// prefer WriteTo.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, 0, b.size)
	for _, block := range b.blocks {
		out = append(out, block...)
	}

	return out
}
