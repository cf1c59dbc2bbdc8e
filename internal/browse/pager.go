package browse

// DefaultPageSize is the number of markets shown per results page.
const DefaultPageSize = 5

// TotalPages returns ceil(n/size), with a minimum of 1 so an empty list
// still has a page to render.
func TotalPages(n, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Clamp limits page to [0, total-1].
func Clamp(page, total int) int {
	if page >= total {
		page = total - 1
	}
	if page < 0 {
		page = 0
	}
	return page
}

// Bounds returns the half-open index range [start, end) of page within a
// list of n items. page is clamped first.
func Bounds(page, n, size int) (start, end int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	page = Clamp(page, TotalPages(n, size))
	start = page * size
	if start > n {
		start = n
	}
	end = start + size
	if end > n {
		end = n
	}
	return start, end
}
