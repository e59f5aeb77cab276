// Package levels orders supervisory level labels.
//
// The canonical labels are "None" (alias "Employee"), "Level N" for N >= 1 and
// "Overall". None is below everything and Overall above everything. Labels
// outside that set are compared lexically.
package levels

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	None     = "None"
	Employee = "Employee"
	Overall  = "Overall"
)

// OverallRank is the rank reported for Overall; it sits above any "Level N".
const OverallRank = math.MaxInt32

type Level struct {
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

// Rank returns the rank of a label and whether the label is canonical.
// An empty label counts as None.
func Rank(label string) (int, bool) {
	s := strings.TrimSpace(label)
	switch {
	case s == "", strings.EqualFold(s, None), strings.EqualFold(s, Employee):
		return 0, true
	case strings.EqualFold(s, Overall):
		return OverallRank, true
	}
	if len(s) <= len("level") || !strings.EqualFold(s[:len("level")], "level") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(s[len("level"):]))
	// Numbers that would reach Overall's rank are not levels.
	if err != nil || n < 1 || n >= OverallRank {
		return 0, false
	}
	return n, true
}

func IsCanonical(label string) bool {
	_, ok := Rank(label)
	return ok
}

func IsOverall(label string) bool {
	r, ok := Rank(label)
	return ok && r == OverallRank
}

func IsLowest(label string) bool {
	r, ok := Rank(label)
	return ok && r == 0
}

// IsLower reports whether a sits strictly below b. Overall and None are
// absolute: they are checked before any rank or lexical comparison.
func IsLower(a, b string) bool {
	ra, okA := Rank(a)
	rb, okB := Rank(b)
	switch {
	case okA && ra == OverallRank:
		return false
	case okB && rb == OverallRank:
		return true
	case okB && rb == 0:
		return false
	case okA && ra == 0:
		return true
	case okA && okB:
		return ra < rb
	}
	return strings.TrimSpace(a) < strings.TrimSpace(b)
}

// Compare returns -1, 0 or 1 following IsLower.
func Compare(a, b string) int {
	switch {
	case IsLower(a, b):
		return -1
	case IsLower(b, a):
		return 1
	}
	return 0
}

func Equal(a, b string) bool {
	return Compare(a, b) == 0
}

// Canonical lists None, Level 1..n and Overall in ascending order. Overall is
// given rank n+1 for display.
func Canonical(n int) []Level {
	out := make([]Level, 0, n+2)
	out = append(out, Level{Name: None, Rank: 0})
	for i := 1; i <= n; i++ {
		out = append(out, Level{Name: "Level " + strconv.Itoa(i), Rank: i})
	}
	return append(out, Level{Name: Overall, Rank: n + 1})
}

// NonCanonical returns the distinct labels that fall back to lexical
// ordering, sorted.
func NonCanonical(labels ...string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, l := range labels {
		if IsCanonical(l) {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
