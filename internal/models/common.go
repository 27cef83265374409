package models

// Pagination describes list response metadata.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// NewPagination builds Pagination from a page request and a total row count.
func NewPagination(page, pageSize, total int) *Pagination {
	return &Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}
