package response

// Pagination describes one page of a list response. From and To are
// 1-based item positions and are both 0 for an empty page.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int64 `json:"total_pages"`
	TotalItems int64 `json:"total_items"`
	HasMore    bool  `json:"has_more"`
	From       int   `json:"from"`
	To         int   `json:"to"`
}

// Offset is the number of rows to skip for page.
func Offset(page, pageSize int) int {
	if page < 1 || pageSize < 1 {
		return 0
	}
	return (page - 1) * pageSize
}

// NewPagination builds the envelope for a page holding count items out of
// total.
func NewPagination(page, pageSize, count int, total int64) *Pagination {
	p := &Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
	}
	if pageSize > 0 {
		p.TotalPages = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	p.HasMore = int64(page) < p.TotalPages
	if count > 0 {
		p.From = Offset(page, pageSize) + 1
		p.To = Offset(page, pageSize) + count
	}
	return p
}
