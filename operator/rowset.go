package operator

import "strconv"

// SeqRows builds the initial row bag for a WildcardBlock fanning over a
// Seq dimension of length n: rows 0..n-1, keyed by decimal index.
func SeqRows(n int) []Row {
	rows := make([]Row, n)
	for i := 0; i < n; i++ {
		rows[i] = Row{Index: i, Key: strconv.Itoa(i)}
	}
	return rows
}

// MapRows builds the initial row bag for a WildcardBlock fanning over a
// Map dimension, one row per key in the Map's insertion order.
func MapRows(keys []string) []Row {
	rows := make([]Row, len(keys))
	for i, k := range keys {
		rows[i] = Row{Key: k, IsMapDim: true}
	}
	return rows
}
