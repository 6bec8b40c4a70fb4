package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name        string
		page, limit string
		want        PaginationParams
	}{
		{"defaults", "", "", PaginationParams{Page: 1, Limit: 20, Offset: 0}},
		{"explicit", "3", "10", PaginationParams{Page: 3, Limit: 10, Offset: 20}},
		{"garbage", "x", "y", PaginationParams{Page: 1, Limit: 20, Offset: 0}},
		{"negative page", "-2", "5", PaginationParams{Page: 1, Limit: 5, Offset: 0}},
		{"limit too large", "2", "500", PaginationParams{Page: 2, Limit: 20, Offset: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePagination(tt.page, tt.limit))
		})
	}
}

func TestPaginationResponse(t *testing.T) {
	p := ParsePagination("1", "20")

	assert.Equal(t, 0, p.Response(0).TotalPages)
	assert.Equal(t, 1, p.Response(20).TotalPages)
	assert.Equal(t, 2, p.Response(21).TotalPages)
	assert.Equal(t, int64(21), p.Response(21).Total)
}
