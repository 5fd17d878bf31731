package user

// Pagination describes one page of a result set. Page is 1-based.
type Pagination struct {
	Total      int64
	Page       int64
	Limit      int64
	TotalPages int64
}

// NewPagination computes TotalPages by rounding up. A non-positive limit
// yields zero pages.
func NewPagination(total, page, limit int64) *Pagination {
	p := &Pagination{Total: total, Page: page, Limit: limit}
	if limit > 0 {
		p.TotalPages = (total + limit - 1) / limit
	}
	return p
}

// Offset is the number of rows skipped before page.
func Offset(page, limit int64) int64 {
	if page < 1 || limit < 1 {
		return 0
	}
	return (page - 1) * limit
}
