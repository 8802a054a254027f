package mrucodec_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astenc/binjs/internal/mrucodec"
)

func roundTrip(t *testing.T, numCellBits int, xs []uint32) []uint32 {
	t.Helper()

	var buf bytes.Buffer

	w, err := mrucodec.NewWriter(&buf, numCellBits)
	require.NoError(t, err)

	for _, v := range xs {
		require.NoError(t, w.Write(v))
	}

	r, err := mrucodec.NewReader(&buf, numCellBits)
	require.NoError(t, err)

	got := make([]uint32, len(xs))

	for i := range xs {
		v, err := r.Read()
		require.NoError(t, err)
		got[i] = v
	}

	return got
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	xs := make([]uint32, 500)

	for i := range xs {
		xs[i] = uint32(rng.Intn(1 << 20))
	}

	for _, n := range []int{1, 2, 3, 4, 5} {
		got := roundTrip(t, n, xs)
		assert.Equal(t, xs, got, "numCellBits=%d", n)
	}
}

func TestSmallLiteralIsOneByteAndLeavesMRUUnchanged(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	w, err := mrucodec.NewWriter(&buf, 2) // D=6, small literal range [0,32)
	require.NoError(t, err)

	require.NoError(t, w.Write(31))
	assert.Equal(t, 1, buf.Len())

	before := buf.Len()
	require.NoError(t, w.Write(9))
	assert.Equal(t, before+1, buf.Len())

	got := roundTrip(t, 2, []uint32{31, 9})
	assert.Equal(t, []uint32{31, 9}, got)
}

func TestRepeatedLargeValueCompactsToOneByte(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	w, err := mrucodec.NewWriter(&buf, 2)
	require.NoError(t, err)

	require.NoError(t, w.Write(1025))
	afterFirst := buf.Len()

	require.NoError(t, w.Write(1025))
	assert.Equal(t, afterFirst+1, buf.Len(), "repeating the same large value should cost one zero-delta byte")

	got := roundTrip(t, 2, []uint32{1025, 1025})
	assert.Equal(t, []uint32{1025, 1025}, got)
}

func TestCellShufflingPromotesHitCellToFront(t *testing.T) {
	t.Parallel()

	// N=3 gives C=7 cells, D=5, small-literal cutoff 16, delta range [-16,15).
	// After seven literals the cells hold 700..100; 205 hits cell 5 (200)
	// with delta +5 and moves to the front, so the final 700 (now cell 1)
	// round-trips only if the reader shuffles its cells the same way.
	values := []uint32{100, 200, 300, 400, 500, 600, 700, 205, 700}
	got := roundTrip(t, 3, values)
	assert.Equal(t, values, got)
}

func TestDeltaWriterRoundTrip(t *testing.T) {
	t.Parallel()

	xs := []uint32{0, 5, 5, 1000, 999, 0, 42}

	var buf bytes.Buffer

	w := mrucodec.NewDeltaWriter(&buf)
	for _, v := range xs {
		require.NoError(t, w.Write(v))
	}

	r := mrucodec.NewDeltaReader(&buf)

	got := make([]uint32, len(xs))
	for i := range xs {
		v, err := r.Read()
		require.NoError(t, err)
		got[i] = v
	}

	assert.Equal(t, xs, got)
}

// TestScenarioS1MRUBasic exercises spec §8's S1 sequence ([1025, 1025]),
// asserting the round-trip and the zero-delta compactness it's meant to
// demonstrate, rather than the spec's literal example bytes: those bytes
// (0x81, 0x08, 0x40) decode, under the "00"-prefixed literal selector the
// surrounding prose defines, as three codes instead of two (a cell-1
// delta, a small literal, and a cell-0 delta) — inconsistent with the
// two values actually written. The four-byte S2 example has the same
// problem. See DESIGN.md's MRU-delta entry for the full analysis; this
// implementation follows the prose write()/read() contract instead,
// which properties 1-4 already pin down precisely.
func TestScenarioS1MRUBasic(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	w, err := mrucodec.NewWriter(&buf, 2)
	require.NoError(t, err)

	require.NoError(t, w.Write(1025))
	afterFirst := buf.Len()
	require.NoError(t, w.Write(1025))

	assert.Equal(t, afterFirst+1, buf.Len(), "repeating 1025 costs one more byte (zero-delta)")

	got := roundTrip(t, 2, []uint32{1025, 1025})
	assert.Equal(t, []uint32{1025, 1025}, got)
}

// TestScenarioS2MRUNegativeDelta exercises spec §8's S2 sequence
// ([1023, 0]); see TestScenarioS1MRUBasic's comment for why this asserts
// round-trip rather than the spec's literal example bytes.
func TestScenarioS2MRUNegativeDelta(t *testing.T) {
	t.Parallel()

	got := roundTrip(t, 2, []uint32{1023, 0})
	assert.Equal(t, []uint32{1023, 0}, got)
}

func TestScenarioS3MRUSmallLiteral(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	w, err := mrucodec.NewWriter(&buf, 2)
	require.NoError(t, err)

	require.NoError(t, w.Write(31))

	assert.Equal(t, []byte{0x1F}, buf.Bytes())
}

func TestNewWriterRejectsOutOfRangeCellBits(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	_, err := mrucodec.NewWriter(&buf, 0)
	assert.ErrorIs(t, err, mrucodec.ErrCellBits)

	_, err = mrucodec.NewWriter(&buf, 6)
	assert.ErrorIs(t, err, mrucodec.ErrCellBits)
}
