package memo

import (
	"fmt"
	"strings"

	"github.com/astenc/binjs/internal/arena"
)

// ValueOf resolves a leaf node's primitive payload (Number/String), so
// structurally identical subtrees with different literal values hash
// differently. A nil ValueOf (or a node it returns nil for) contributes
// nothing beyond the node's label.
type ValueOf func(*arena.Node) any

// StructuralHash returns a string uniquely identifying n's shape: its
// label, its leaf payload (via valueOf, if provided), and recursively its
// children's hashes. Two subtrees with equal StructuralHash are
// candidates for MEMO_REPLAY.
func StructuralHash(n *arena.Node, valueOf ValueOf) string {
	var b strings.Builder

	hashInto(&b, n, valueOf)

	return b.String()
}

func hashInto(b *strings.Builder, n *arena.Node, valueOf ValueOf) {
	b.WriteString(n.Label.Name)

	if valueOf != nil {
		if v := valueOf(n); v != nil {
			fmt.Fprintf(b, "=%v", v)
		}
	}

	b.WriteByte('(')

	for _, c := range n.Children() {
		hashInto(b, c, valueOf)
		b.WriteByte(',')
	}

	b.WriteByte(')')
}

// Recorder is the encoder-side half of MEMO_RECORD/MEMO_REPLAY: it
// recognizes a subtree it has already assigned an ordinal to, within a
// bounded recency window, so the encoder can emit MEMO_REPLAY n instead of
// re-encoding the subtree.
type Recorder struct {
	byHash *cache[string, int]
	next   int
}

// NewRecorder creates a Recorder remembering up to capacity distinct
// subtree hashes. capacity <= 0 means unbounded.
func NewRecorder(capacity int) *Recorder {
	return &Recorder{byHash: newCache[string, int](capacity)}
}

// Lookup reports the ordinal previously assigned to a subtree with this
// hash, if it is still within the recency window.
func (r *Recorder) Lookup(hash string) (int, bool) {
	return r.byHash.get(hash)
}

// Record assigns the next ordinal to hash and returns it. Callers should
// call Lookup first; Record always allocates a fresh ordinal.
func (r *Recorder) Record(hash string) int {
	ordinal := r.next
	r.next++
	r.byHash.put(hash, ordinal)

	return ordinal
}

// Replayer is the decoder-side half: it holds recorded subtrees indexed
// by the ordinal the encoder assigned them, so MEMO_REPLAY n can look the
// subtree back up.
type Replayer struct {
	byOrdinal *cache[int, *arena.Node]
}

// NewReplayer creates a Replayer with the same window size the encoder's
// Recorder used, so a MEMO_REPLAY the encoder considered valid is never
// missing on the decode side.
func NewReplayer(capacity int) *Replayer {
	return &Replayer{byOrdinal: newCache[int, *arena.Node](capacity)}
}

// Record stores n under ordinal for later Replay lookups.
func (p *Replayer) Record(ordinal int, n *arena.Node) {
	p.byOrdinal.put(ordinal, n)
}

// Replay returns the subtree recorded under ordinal, if any.
func (p *Replayer) Replay(ordinal int) (*arena.Node, bool) {
	return p.byOrdinal.get(ordinal)
}
