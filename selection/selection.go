// Package selection tracks the ids picked for a bulk operation.
package selection

// Set is an insertion-ordered set of ids. It is not safe for concurrent use;
// owners guard it themselves.
type Set[K comparable] struct {
	index map[K]int
	order []K
}

func New[K comparable](ids ...K) *Set[K] {
	s := &Set[K]{index: make(map[K]int)}
	for _, id := range ids {
		s.add(id)
	}
	return s
}

func (s *Set[K]) add(id K) {
	if _, ok := s.index[id]; ok {
		return
	}
	s.index[id] = len(s.order)
	s.order = append(s.order, id)
}

func (s *Set[K]) remove(id K) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	delete(s.index, id)
	s.order = append(s.order[:i], s.order[i+1:]...)
	for j := i; j < len(s.order); j++ {
		s.index[s.order[j]] = j
	}
}

// Toggle adds id when absent and removes it when present.
func (s *Set[K]) Toggle(id K) {
	if s.IsSelected(id) {
		s.remove(id)
		return
	}
	s.add(id)
}

// SelectAll acts on the visible page only. When every visible id is already
// selected it deselects exactly those ids, otherwise it selects all of them.
// Ids outside visible are never touched.
func (s *Set[K]) SelectAll(visible []K) {
	if len(visible) == 0 {
		return
	}
	if s.AllSelected(visible) {
		for _, id := range visible {
			s.remove(id)
		}
		return
	}
	for _, id := range visible {
		s.add(id)
	}
}

// AllSelected reports whether every id in visible is selected.
func (s *Set[K]) AllSelected(visible []K) bool {
	for _, id := range visible {
		if !s.IsSelected(id) {
			return false
		}
	}
	return len(visible) > 0
}

func (s *Set[K]) Clear() {
	s.index = make(map[K]int)
	s.order = nil
}

func (s *Set[K]) IsSelected(id K) bool {
	_, ok := s.index[id]
	return ok
}

func (s *Set[K]) Len() int {
	return len(s.order)
}

// IDs returns a copy of the selected ids in the order they were added.
func (s *Set[K]) IDs() []K {
	out := make([]K, len(s.order))
	copy(out, s.order)
	return out
}
