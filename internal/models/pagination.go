package models

// Pagination is a cursor describing one page of a list.
type Pagination struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// NewPagination derives a cursor from a 1-based page number and a page size.
func NewPagination(page, perPage int) Pagination {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	return Pagination{
		Skip:  (page - 1) * perPage,
		Limit: perPage,
	}
}

// Page returns the 1-based page number the cursor points at.
func (p Pagination) Page() int {
	if p.Limit < 1 {
		return 1
	}
	return p.Skip/p.Limit + 1
}

// Next returns the cursor for the following page.
func (p Pagination) Next() Pagination {
	return Pagination{
		Skip:  p.Skip + p.Limit,
		Limit: p.Limit,
		Total: p.Total,
	}
}

// HasMore reports whether items remain after the current page.
func (p Pagination) HasMore() bool {
	return p.Skip+p.Limit < p.Total
}
