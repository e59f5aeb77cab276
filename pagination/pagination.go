// Package pagination derives page windows from filtered, sorted lists.
package pagination

// Window is one page of items. FirstIndex is inclusive and LastIndex
// exclusive, both 0-based offsets into the full list.
type Window[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	FirstIndex int `json:"first_index"`
	LastIndex  int `json:"last_index"`
	TotalPages int `json:"total_pages"`
	Total      int `json:"total"`
}

// TotalPages returns ceil(n/size). A non-positive size puts everything on one page.
func TotalPages(n, size int) int {
	if n <= 0 {
		return 0
	}
	if size <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Clamp pulls page into [1, totalPages], or 1 when there are no pages.
func Clamp(page, totalPages int) int {
	if totalPages <= 0 || page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

func Page[T any](items []T, pageSize, pageNumber int) Window[T] {
	n := len(items)
	if pageSize <= 0 {
		pageSize = n
	}
	total := TotalPages(n, pageSize)
	page := Clamp(pageNumber, total)

	first := (page - 1) * pageSize
	last := first + pageSize
	if last > n {
		last = n
	}
	if first > n {
		first = n
	}
	return Window[T]{
		Items:      items[first:last:last],
		Page:       page,
		PageSize:   pageSize,
		FirstIndex: first,
		LastIndex:  last,
		TotalPages: total,
		Total:      n,
	}
}
