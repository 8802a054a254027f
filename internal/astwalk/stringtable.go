package astwalk

import "sort"

// StringTable interns every string literal and identifier name the
// walker encounters, frequency-ordered so the most common strings get
// the smallest MRU-delta string-index-stream indices (spec §4.6).
type StringTable struct {
	counts  map[string]int
	order   []string
	indices map[string]int // valid only after Finalize
}

// NewStringTable creates an empty StringTable.
func NewStringTable() *StringTable {
	return &StringTable{counts: make(map[string]int)}
}

// Intern records one occurrence of s.
func (t *StringTable) Intern(s string) {
	if _, seen := t.counts[s]; !seen {
		t.order = append(t.order, s)
	}

	t.counts[s]++
}

// Finalize fixes the table's final order: descending frequency, then
// insertion order to break ties deterministically. Returns the ordered
// strings; also usable via Index after this call.
func (t *StringTable) Finalize() []string {
	strs := make([]string, len(t.order))
	copy(strs, t.order)

	firstSeen := make(map[string]int, len(t.order))
	for i, s := range t.order {
		firstSeen[s] = i
	}

	sort.SliceStable(strs, func(i, j int) bool {
		ci, cj := t.counts[strs[i]], t.counts[strs[j]]
		if ci != cj {
			return ci > cj
		}

		return firstSeen[strs[i]] < firstSeen[strs[j]]
	})

	t.indices = make(map[string]int, len(strs))
	for i, s := range strs {
		t.indices[s] = i
	}

	return strs
}

// Index returns s's table index. Finalize must have been called.
func (t *StringTable) Index(s string) (int, bool) {
	i, ok := t.indices[s]

	return i, ok
}
