package pagination

import (
	"slices"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort is the single active sort of a view. The zero value means unsorted.
type Sort struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

// Toggle returns the sort after a request to sort by key: a new key starts
// ascending, the same key flips direction.
func (s Sort) Toggle(key string) Sort {
	if s.Key == key && s.Direction == Asc {
		return Sort{Key: key, Direction: Desc}
	}
	return Sort{Key: key, Direction: Asc}
}

// Comparators maps sort keys to three-way comparisons.
type Comparators[T any] map[string]func(a, b T) int

// SortStable returns a sorted copy of items. Equal keys keep their relative
// order; an unknown or empty key returns the items unchanged.
func SortStable[T any](items []T, s Sort, cmps Comparators[T]) []T {
	out := slices.Clone(items)
	cmp, ok := cmps[s.Key]
	if !ok || s.Key == "" {
		return out
	}
	slices.SortStableFunc(out, func(a, b T) int {
		if s.Direction == Desc {
			return cmp(b, a)
		}
		return cmp(a, b)
	})
	return out
}
