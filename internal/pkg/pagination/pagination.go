package pagination

import "errors"

// Per-endpoint page size bounds.
const (
	MaxProjectPageSize   = 50
	MaxPortfolioPageSize = 100
)

var ErrLimitTooLarge = errors.New("Limit exceeds the maximum page size")

// Page is a validated (offset, limit) pair.
type Page struct {
	Offset int
	Limit  int
}

// New validates a requested page against the endpoint's bound. A zero or
// negative limit falls back to the bound; a negative offset reads as zero.
// An out-of-range offset is not an error (it yields an empty page).
func New(offset, limit, max int) (Page, error) {
	if limit > max {
		return Page{}, ErrLimitTooLarge
	}
	if limit <= 0 {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return Page{Offset: offset, Limit: limit}, nil
}

// HasMore reports whether rows exist beyond the returned page.
func HasMore(offset, returned int, total int64) bool {
	return int64(offset+returned) < total
}
