package mrucodec

import (
	"io"

	"github.com/astenc/binjs/internal/bytestream"
)

// DeltaWriter is the degenerate companion codec from spec §4.4, used by
// the grammar-reference stream: it writes v - lastValue as a zig-zag
// signed delta against a single running predecessor, rather than
// against an MRU window, on top of the same basic varint the Byte
// Stream Buffer uses.
type DeltaWriter struct {
	out  io.Writer
	last uint32
}

// NewDeltaWriter creates a DeltaWriter writing to out. The first value
// written is delta-encoded against an implicit predecessor of 0.
func NewDeltaWriter(out io.Writer) *DeltaWriter {
	return &DeltaWriter{out: out}
}

// Write encodes v against the last value written (0 the first time).
func (dw *DeltaWriter) Write(v uint32) error {
	delta := int64(v) - int64(dw.last)
	dw.last = v

	return bytestream.WriteVarint(dw.out, uint64(zigzagEncode(delta)))
}

// DeltaReader mirrors DeltaWriter.
type DeltaReader struct {
	in   io.ByteReader
	last uint32
}

// NewDeltaReader creates a DeltaReader reading from in.
func NewDeltaReader(in io.ByteReader) *DeltaReader {
	return &DeltaReader{in: in}
}

// Read decodes the next value.
func (dr *DeltaReader) Read() (uint32, error) {
	raw, err := bytestream.ReadVarintFrom(dr.in)
	if err != nil {
		return 0, err
	}

	v := uint32(int64(dr.last) + zigzagDecode(int64(raw)))
	dr.last = v

	return v, nil
}

func zigzagEncode(n int64) int64 {
	return (n << 1) ^ (n >> 63)
}

func zigzagDecode(z int64) int64 {
	return int64(uint64(z)>>1) ^ -(z & 1)
}
