package query

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TopLimit is the fixed size of enumerated-dimension distributions.
const TopLimit = 10

// Count is one bucket of a distribution.
type Count struct {
	Key   string
	Count int
}

// CountBy counts rows per key. Rows for which key reports false are skipped.
// Buckets keep first-seen order.
func CountBy(rows []Row, key func(Row) (string, bool)) []Count {
	index := make(map[string]int)
	out := make([]Count, 0)
	for _, r := range rows {
		k, ok := key(r)
		if !ok {
			continue
		}
		if i, seen := index[k]; seen {
			out[i].Count++
			continue
		}
		index[k] = len(out)
		out = append(out, Count{Key: k, Count: 1})
	}
	return out
}

// Group is the set of rows sharing a key.
type Group[K comparable] struct {
	Key  K
	Rows []Row
}

// GroupBy partitions rows by key in first-seen order.
func GroupBy[K comparable](rows []Row, key func(Row) (K, bool)) []Group[K] {
	index := make(map[K]int)
	out := make([]Group[K], 0)
	for _, r := range rows {
		k, ok := key(r)
		if !ok {
			continue
		}
		if i, seen := index[k]; seen {
			out[i].Rows = append(out[i].Rows, r)
			continue
		}
		index[k] = len(out)
		out = append(out, Group[K]{Key: k, Rows: []Row{r}})
	}
	return out
}

// SortByCountDesc orders buckets by descending count; ties keep input order.
func SortByCountDesc(counts []Count) {
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
}

// Top returns at most n leading buckets.
func Top(counts []Count, n int) []Count {
	if len(counts) <= n {
		return counts
	}
	return counts[:n]
}

// Distribution is CountBy, sorted, optionally truncated to TopLimit.
func Distribution(rows []Row, key func(Row) (string, bool), truncate bool) []Count {
	counts := CountBy(rows, key)
	SortByCountDesc(counts)
	if truncate {
		counts = Top(counts, TopLimit)
	}
	return counts
}

// Average is the mean of the non-nil values rounded half away from zero to
// one decimal place. No values yields 0.
func Average(values []*float64) float64 {
	sum := decimal.Zero
	n := 0
	for _, v := range values {
		if v == nil {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(*v))
		n++
	}
	if n == 0 {
		return 0
	}
	return sum.Div(decimal.NewFromInt(int64(n))).Round(1).InexactFloat64()
}

// Pages is ceil(total/limit).
func Pages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
