package repository

import "math"

// pageOffset converts a 1-based page into a row offset. Pages below 1 read
// from the start and the result is capped so it cannot overflow.
func pageOffset(page, limit int) int {
	if page < 1 || limit < 1 {
		return 0
	}
	if page-1 > math.MaxInt32/limit {
		return math.MaxInt32
	}
	return (page - 1) * limit
}
