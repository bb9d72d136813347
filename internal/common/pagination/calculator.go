package pagination

// CalculateOffset converts a 1-based page number into a query offset.
func CalculateOffset(page, limit int) int {
	return (page - 1) * limit
}

// CalculateTotalPages returns the page count for a listing of total items.
// An empty listing still has one page so clients always get a valid range.
func CalculateTotalPages(total int64, limit int) int {
	if total == 0 {
		return 1
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
