package engine

import (
	"math"
	"sort"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/spektr-org/charta/dataset"
	"github.com/spektr-org/charta/instruction"
)

// ============================================================================
// AGGREGATORS — Partitioning and Reduction
// ============================================================================
// Shared by the group and pivot transforms and the aggregation stage.
// Partitions are keyed by a tuple of cell values; the tuple is hashed with
// xxh3 and collisions are resolved by comparing the tuples themselves.
// ============================================================================

// Aggregation functions.
const (
	AggCount  = instruction.AggCount
	AggSum    = instruction.AggSum
	AggMean   = instruction.AggMean
	AggMedian = instruction.AggMedian
	AggMin    = instruction.AggMin
	AggMax    = instruction.AggMax
)

// ============================================================================
// PARTITIONING
// ============================================================================

type partition struct {
	Key  []any
	Rows []int
}

// partitionRows groups d's rows by the values of cols. With dropMissing, rows
// with a missing key value are left out (groupby semantics); otherwise
// missing values form their own partition. Partitions come back sorted by key.
func partitionRows(d *dataset.Dataset, cols []string, dropMissing bool) []*partition {
	buckets := make(map[uint64][]*partition)
	var parts []*partition

rows:
	for i := 0; i < d.Len(); i++ {
		key := make([]any, len(cols))
		for j, c := range cols {
			v := d.Value(i, c)
			if dataset.IsMissing(v) {
				if dropMissing {
					continue rows
				}
				v = nil
			}
			key[j] = v
		}

		h := hashKey(key)
		var p *partition
		for _, cand := range buckets[h] {
			if keysEqual(cand.Key, key) {
				p = cand
				break
			}
		}
		if p == nil {
			p = &partition{Key: key}
			buckets[h] = append(buckets[h], p)
			parts = append(parts, p)
		}
		p.Rows = append(p.Rows, i)
	}

	sort.SliceStable(parts, func(a, b int) bool {
		return compareKeys(parts[a].Key, parts[b].Key) < 0
	})
	return parts
}

func hashKey(key []any) uint64 {
	var b strings.Builder
	for _, v := range key {
		switch v.(type) {
		case nil:
			b.WriteByte('n')
		case float64:
			b.WriteByte('f')
		case string:
			b.WriteByte('s')
		case bool:
			b.WriteByte('b')
		default:
			b.WriteByte('t')
		}
		b.WriteString(dataset.Format(v))
		b.WriteByte(0)
	}
	return xxh3.HashString(b.String())
}

func keysEqual(a, b []any) bool {
	return compareKeys(a, b) == 0
}

func compareKeys(a, b []any) int {
	for i := range a {
		if c := dataset.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

// ============================================================================
// REDUCTION
// ============================================================================

// reduce applies fn to the numeric values of col over rows. count counts rows
// regardless of values. An empty numeric set reduces to nil except for sum,
// which is 0.
func reduce(d *dataset.Dataset, rows []int, col, fn string) any {
	if fn == AggCount {
		return float64(len(rows))
	}
	vals := make([]float64, 0, len(rows))
	for _, i := range rows {
		if v, ok := d.Value(i, col).(float64); ok && !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	switch fn {
	case AggSum:
		return Sum(vals)
	}
	if len(vals) == 0 {
		return nil
	}
	switch fn {
	case AggMean:
		return Mean(vals)
	case AggMedian:
		return Median(vals)
	case AggMin:
		return Min(vals)
	case AggMax:
		return Max(vals)
	}
	return nil
}

// Sum adds vals.
func Sum(vals []float64) float64 {
	var total float64
	for _, v := range vals {
		total += v
	}
	return total
}

// Mean is the arithmetic mean; 0 for no values.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return Sum(vals) / float64(len(vals))
}

// Median is the middle value, or the mean of the two middle values.
func Median(vals []float64) float64 {
	n := len(vals)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, vals)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Min returns the smallest value.
func Min(vals []float64) float64 {
	m := math.Inf(1)
	for _, v := range vals {
		if v < m {
			m = v
		}
	}
	return m
}

// Max returns the largest value.
func Max(vals []float64) float64 {
	m := math.Inf(-1)
	for _, v := range vals {
		if v > m {
			m = v
		}
	}
	return m
}
