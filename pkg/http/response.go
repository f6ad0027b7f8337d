package http

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// Pagination describes a page of a listing response.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// PageParams holds normalized paging inputs parsed from the query string.
type PageParams struct {
	Page   int
	Limit  int
	Offset int
	Search string
}

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// ParsePageParams reads page, limit and search query parameters, clamping
// them to sane bounds.
func ParsePageParams(r *http.Request) PageParams {
	page := 1
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}

	limit := defaultPageLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	return PageParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
		Search: r.URL.Query().Get("search"),
	}
}
