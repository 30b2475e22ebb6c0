package dataset

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// ============================================================================
// MASK — Row Selection Bitmap
// ============================================================================
// A Mask marks the selected row positions of one specific dataset snapshot.
// Backed by a roaring bitmap so selections over large datasets stay compact
// and Select walks only the set bits.
// ============================================================================

// Mask is a row selection over a dataset of Len() rows.
type Mask struct {
	bits *roaring.Bitmap
	n    int
}

// NewMask returns an empty selection over n rows.
func NewMask(n int) *Mask {
	return &Mask{bits: roaring.New(), n: n}
}

// All returns a selection of every row in [0, n).
func All(n int) *Mask {
	m := NewMask(n)
	if n > 0 {
		m.bits.AddRange(0, uint64(n))
	}
	return m
}

// Set marks row i as selected. Out-of-range rows are ignored.
func (m *Mask) Set(i int) {
	if i < 0 || i >= m.n {
		return
	}
	m.bits.Add(uint32(i))
}

// Contains reports whether row i is selected.
func (m *Mask) Contains(i int) bool {
	if i < 0 || i >= m.n {
		return false
	}
	return m.bits.Contains(uint32(i))
}

// Len is the number of rows the mask spans.
func (m *Mask) Len() int { return m.n }

// Count is the number of selected rows.
func (m *Mask) Count() int { return int(m.bits.GetCardinality()) }

// IsAll reports whether every row is selected.
func (m *Mask) IsAll() bool { return m.Count() == m.n }

// Indices returns the selected row positions in ascending order.
func (m *Mask) Indices() []int {
	out := make([]int, 0, m.Count())
	it := m.bits.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}
