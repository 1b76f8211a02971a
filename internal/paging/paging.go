package paging

// DefaultCeiling is the hard cap on pages fetched per comment category
const DefaultCeiling = 300

// TotalPages computes how many pages a category has given the reported total
// count and the page size. A non-positive total yields zero pages; the result
// is clamped to ceiling.
func TotalPages(totalCount, pageSize, ceiling int) int {
	if totalCount <= 0 || pageSize <= 0 {
		return 0
	}
	pages := (totalCount + pageSize - 1) / pageSize
	if ceiling > 0 && pages > ceiling {
		return ceiling
	}
	return pages
}
