package pagination

// View holds the inputs of a paginated table and recomputes its window
// whenever one of them changes, keeping the current page in range.
type View[T any] struct {
	items    []T
	filter   func(T) bool
	sort     Sort
	cmps     Comparators[T]
	pageSize int
	page     int

	derived []T
}

func NewView[T any](pageSize int, cmps Comparators[T]) *View[T] {
	return &View[T]{pageSize: pageSize, page: 1, cmps: cmps}
}

func (v *View[T]) SetItems(items []T) {
	v.items = items
	v.recompute()
}

// SetFilter installs a predicate; nil removes filtering.
func (v *View[T]) SetFilter(f func(T) bool) {
	v.filter = f
	v.recompute()
}

func (v *View[T]) SetPageSize(size int) {
	v.pageSize = size
	v.recompute()
}

func (v *View[T]) SetPage(page int) {
	v.page = Clamp(page, TotalPages(len(v.derived), v.pageSize))
}

// SortBy toggles the active sort for key.
func (v *View[T]) SortBy(key string) {
	v.sort = v.sort.Toggle(key)
	v.recompute()
}

func (v *View[T]) SetSort(s Sort) {
	v.sort = s
	v.recompute()
}

func (v *View[T]) Sort() Sort {
	return v.sort
}

func (v *View[T]) Window() Window[T] {
	return Page(v.derived, v.pageSize, v.page)
}

func (v *View[T]) recompute() {
	filtered := make([]T, 0, len(v.items))
	for _, it := range v.items {
		if v.filter == nil || v.filter(it) {
			filtered = append(filtered, it)
		}
	}
	v.derived = SortStable(filtered, v.sort, v.cmps)
	v.page = Clamp(v.page, TotalPages(len(v.derived), v.pageSize))
}
