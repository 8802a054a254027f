package digram

// heap is an intrusive binary max-heap of digram Lists keyed by occurrence
// count. Each List carries its own heapIndex, so push/update/remove run in
// O(log n) without a secondary index structure — the same intrusive-field
// shape the teacher uses for doubly-linked cache entries, applied to a
// heap slot instead of prev/next pointers.
type heap struct {
	items []*List
}

func newHeap() *heap {
	return &heap{}
}

// less reports whether a should sort above b in the max-heap: larger
// occurrence count wins; ties break on the Add counter at each list's most
// recent Add (lower seq first) so that results are deterministic
// regardless of map iteration order.
func less(a, b *List) bool {
	if a.Count() != b.Count() {
		return a.Count() > b.Count()
	}

	return a.seq < b.seq
}

func (h *heap) set(i int, l *List) {
	h.items[i] = l
	l.heapIndex = i
}

func (h *heap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !less(h.items[i], h.items[parent]) {
			break
		}

		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		h.items[i].heapIndex = i
		h.items[parent].heapIndex = parent
		i = parent
	}
}

func (h *heap) siftDown(i int) {
	n := len(h.items)

	for {
		left := 2*i + 1
		right := 2*i + 2
		smallest := i // "smallest" per max-heap's less() meaning "highest priority"

		if left < n && less(h.items[left], h.items[smallest]) {
			smallest = left
		}

		if right < n && less(h.items[right], h.items[smallest]) {
			smallest = right
		}

		if smallest == i {
			return
		}

		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		h.items[i].heapIndex = i
		h.items[smallest].heapIndex = smallest
		i = smallest
	}
}

func (h *heap) push(l *List) {
	h.items = append(h.items, l)
	l.heapIndex = len(h.items) - 1
	h.siftUp(l.heapIndex)
}

func (h *heap) remove(l *List) {
	i := l.heapIndex
	if i < 0 || i >= len(h.items) || h.items[i] != l {
		return
	}

	last := len(h.items) - 1
	h.set(i, h.items[last])
	h.items = h.items[:last]
	l.heapIndex = -1

	if i < len(h.items) {
		h.siftUp(i)
		h.siftDown(i)
	}
}

// upsert inserts l if it is not present, or repairs its position after its
// count changed. Empty (Count()==0) lists are removed rather than kept at
// the bottom of the heap — a digram with zero occurrences has nothing for
// best() to find and would otherwise accumulate forever.
func (h *heap) upsert(l *List) {
	if l.Count() == 0 {
		if l.heapIndex >= 0 {
			h.remove(l)
		}

		return
	}

	if l.heapIndex < 0 {
		h.push(l)

		return
	}

	h.siftUp(l.heapIndex)
	h.siftDown(l.heapIndex)
}

func (h *heap) peek() *List {
	if len(h.items) == 0 {
		return nil
	}

	return h.items[0]
}
