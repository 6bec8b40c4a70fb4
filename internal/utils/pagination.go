package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agency-management-api/internal/constants"
)

// PaginationParams is a validated page request
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginationResponse is the pagination block of list responses
type PaginationResponse struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// GetPaginationParams reads ?page= and ?limit= from the request
func GetPaginationParams(c *gin.Context) PaginationParams {
	return ParsePagination(c.Query("page"), c.Query("limit"))
}

// ParsePagination falls back to page 1 and the default limit for missing,
// malformed or out-of-range values.
func ParsePagination(page, limit string) PaginationParams {
	p, err := strconv.Atoi(page)
	if err != nil || p < 1 {
		p = 1
	}
	l, err := strconv.Atoi(limit)
	if err != nil || l < constants.MinPageSize || l > constants.MaxPageSize {
		l = constants.DefaultPageSize
	}

	return PaginationParams{
		Page:   p,
		Limit:  l,
		Offset: (p - 1) * l,
	}
}

// Response builds the pagination block for a result set of total rows
func (p PaginationParams) Response(total int64) PaginationResponse {
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return PaginationResponse{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: pages,
	}
}
