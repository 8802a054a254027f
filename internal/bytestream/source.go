package bytestream

import (
	"errors"
	"io"
)

// ErrShortRead is returned when a read runs past the end of the source.
var ErrShortRead = errors.New("bytestream: short read")

// Source is a sequential, but seekable, byte reader over a fixed
// snapshot of bytes, typically produced by Buffer.Bytes or WriteTo.
type Source struct {
	data []byte
	pos  int
}

// NewSource wraps data for sequential reading starting at offset 0.
func NewSource(data []byte) *Source {
	return &Source{data: data}
}

// Pos returns the current read offset.
func (s *Source) Pos() int { return s.pos }

// Len returns the total number of bytes in the source.
func (s *Source) Len() int { return len(s.data) }

// Remaining reports whether any unread bytes remain.
func (s *Source) Remaining() bool { return s.pos < len(s.data) }

// Seek repositions the read offset to off, for random-access reads by
// byte offset.
func (s *Source) Seek(off int) {
	s.pos = off
}

// ReadByte reads and returns the next byte, satisfying io.ByteReader.
func (s *Source) ReadByte() (byte, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}

	b := s.data[s.pos]
	s.pos++

	return b, nil
}

// Read implements io.Reader so Source can be passed to anything that
// consumes a standard byte stream.
func (s *Source) Read(p []byte) (int, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}

	n := copy(p, s.data[s.pos:])
	s.pos += n

	return n, nil
}

// ReadBytes reads exactly n bytes.
func (s *Source) ReadBytes(n int) ([]byte, error) {
	if s.pos+n > len(s.data) {
		return nil, ErrShortRead
	}

	out := s.data[s.pos : s.pos+n]
	s.pos += n

	return out, nil
}

// ReadVarint reads the basic varint: little-endian base-128 with a
// continuation high bit per spec §6, distinct from the MRU codec's
// cell-selector byte layout and from DeltaWriter's zig-zag delta
// encoding. DeltaWriter/DeltaReader carry their zig-zag deltas in this
// basic varint via WriteVarint/ReadVarintFrom; the MRU codec's multi-byte
// literals use their own byte loop.
func (s *Source) ReadVarint() (uint64, error) {
	return ReadVarintFrom(s)
}

// ReadVarintFrom reads one basic varint from any io.ByteReader, so
// callers that aren't holding a Source (DeltaReader, in particular) can
// share the same wire format without depending on Source's byte-slice
// backing.
func ReadVarintFrom(r io.ByteReader) (uint64, error) {
	var (
		result uint64
		shift  uint
	)

	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}

		result |= uint64(b&0x7f) << shift

		if b&0x80 == 0 {
			return result, nil
		}

		shift += 7

		if shift >= 64 {
			return 0, errors.New("bytestream: varint too long")
		}
	}
}

// WriteVarint appends v to out using the basic varint format ReadVarint
// decodes.
func WriteVarint(out io.Writer, v uint64) error {
	bw, ok := out.(io.ByteWriter)
	if !ok {
		bw = singleByteWriter{out}
	}

	for {
		b := byte(v & 0x7f)
		v >>= 7

		if v != 0 {
			if err := bw.WriteByte(b | 0x80); err != nil {
				return err
			}

			continue
		}

		return bw.WriteByte(b)
	}
}

// singleByteWriter adapts an io.Writer without WriteByte to io.ByteWriter.
type singleByteWriter struct{ w io.Writer }

func (s singleByteWriter) WriteByte(b byte) error {
	_, err := s.w.Write([]byte{b})

	return err
}
