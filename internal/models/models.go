// file: internal/models/models.go
package models

// PaginationParams represents limit/offset pagination
type PaginationParams struct {
	Limit  int `json:"limit" validate:"min=0,max=100"`
	Offset int `json:"offset" validate:"min=0"`
}

// Normalize applies defaults and bounds
func (p PaginationParams) Normalize() PaginationParams {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// PaginatedResponse represents a page of results
type PaginatedResponse[T any] struct {
	Data       []T            `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// PaginationMeta contains pagination metadata
type PaginationMeta struct {
	CurrentPage  int   `json:"current_page"`
	TotalPages   int   `json:"total_pages"`
	TotalItems   int64 `json:"total_items"`
	ItemsPerPage int   `json:"items_per_page"`
	HasNext      bool  `json:"has_next"`
	HasPrev      bool  `json:"has_prev"`
}

// NewPaginatedResponse builds the page metadata for data
func NewPaginatedResponse[T any](data []T, params PaginationParams, total int64) *PaginatedResponse[T] {
	params = params.Normalize()
	if data == nil {
		data = []T{}
	}
	totalPages := int((total + int64(params.Limit) - 1) / int64(params.Limit))
	page := params.Offset/params.Limit + 1
	return &PaginatedResponse[T]{
		Data: data,
		Pagination: PaginationMeta{
			CurrentPage:  page,
			TotalPages:   totalPages,
			TotalItems:   total,
			ItemsPerPage: params.Limit,
			HasNext:      page < totalPages,
			HasPrev:      page > 1,
		},
	}
}
