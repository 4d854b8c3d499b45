package services

// Page is one window over an in-memory list.
type Page[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
	Pages    int `json:"pages"`
}

func (p Page[T]) HasPrev() bool { return p.Page > 1 }
func (p Page[T]) HasNext() bool { return p.Page < p.Pages }

// Paginate clamps page into range; an empty list yields page 1 of 1.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = 10
	}
	pages := (len(items) + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * size
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return Page[T]{
		Items:    append([]T(nil), items[start:end]...),
		Page:     page,
		PageSize: size,
		Total:    len(items),
		Pages:    pages,
	}
}
